package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked (spec.md §5's
// config hot-reload supplement, wired to [audio.AudioManager.SetAudioProperties]).
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	AudioChanged bool
	NewAudio     AudioConfig

	RoomsChanged bool
	RoomChanges  []RoomDiff
}

// RoomDiff describes whether a room was added or removed between two configs.
// Existing rooms are not diffed further: a room's tile map is immutable
// for the lifetime of its hosting process.
type RoomDiff struct {
	Name    string
	Added   bool
	Removed bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Audio.MinDistance != new.Audio.MinDistance ||
		old.Audio.MaxDistance != new.Audio.MaxDistance ||
		old.Audio.Rolloff != new.Audio.Rolloff ||
		old.Audio.TransitionTimeMS != new.Audio.TransitionTimeMS ||
		!slices.Equal(old.Audio.SpatializerOrder, new.Audio.SpatializerOrder) {
		d.AudioChanged = true
		d.NewAudio = new.Audio
	}

	oldRooms := make(map[string]bool, len(old.Rooms))
	for _, r := range old.Rooms {
		oldRooms[r.Name] = true
	}
	newRooms := make(map[string]bool, len(new.Rooms))
	for _, r := range new.Rooms {
		newRooms[r.Name] = true
	}

	for name := range oldRooms {
		if !newRooms[name] {
			d.RoomChanges = append(d.RoomChanges, RoomDiff{Name: name, Removed: true})
			d.RoomsChanged = true
		}
	}
	for name := range newRooms {
		if !oldRooms[name] {
			d.RoomChanges = append(d.RoomChanges, RoomDiff{Name: name, Added: true})
			d.RoomsChanged = true
		}
	}

	return d
}
