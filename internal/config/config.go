// Package config provides the configuration schema, loader, and backend
// registry for the roomspatial server.
package config

import "time"

// Config is the root configuration structure for roomspatiald.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Conference  ConferenceConfig  `yaml:"conference"`
	Audio       AudioConfig       `yaml:"audio"`
	Devices     DevicesConfig     `yaml:"devices"`
	Input       InputConfig       `yaml:"input"`
	Rooms       []RoomConfig      `yaml:"rooms"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// ServerConfig holds network and logging settings for the roomspatial server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// ConferenceConfig selects and configures the ConferenceBackend the server
// dials for every room (spec.md §6.1, §6.5).
type ConferenceConfig struct {
	// Backend selects the registered conference.BackendFactory to use
	// (e.g. "ws" for the reference wsbackend.Backend).
	Backend string `yaml:"backend"`

	// JitsiHost, JVBHost, JVBMuc are consumed only by a Jitsi-flavored
	// backend factory; the reference wsbackend ignores them. Carried
	// through from spec.md §6.5's JITSI_HOST/JVB_HOST/JVB_MUC env surface.
	JitsiHost string `yaml:"jitsi_host"`
	JVBHost   string `yaml:"jvb_host"`
	JVBMuc    string `yaml:"jvb_muc"`

	// HandshakeTimeoutMS and HandshakeRetryMS are exposed through
	// HandshakeTimeout and HandshakeRetry, where zero means the caller's
	// default. roomspatiald's rooms do not read them: the mid-session init
	// handshake (spec.md §4.6) always runs with conference.HandshakeBudget
	// and conference.HandshakeRetryInterval.
	HandshakeTimeoutMS int `yaml:"handshake_timeout_ms"`
	HandshakeRetryMS   int `yaml:"handshake_retry_ms"`
}

// HandshakeTimeout returns the configured handshake budget as a Duration,
// or def if unset.
func (c ConferenceConfig) HandshakeTimeout(def time.Duration) time.Duration {
	if c.HandshakeTimeoutMS <= 0 {
		return def
	}
	return time.Duration(c.HandshakeTimeoutMS) * time.Millisecond
}

// HandshakeRetry returns the configured handshake retry interval as a
// Duration, or def if unset.
func (c ConferenceConfig) HandshakeRetry(def time.Duration) time.Duration {
	if c.HandshakeRetryMS <= 0 {
		return def
	}
	return time.Duration(c.HandshakeRetryMS) * time.Millisecond
}

// AudioConfig holds the global spatialization properties (spec.md §3.1
// AudioManager) and the spatializer capability-probing order (spec.md §4.3).
type AudioConfig struct {
	MinDistance      float64  `yaml:"min_distance"`
	MaxDistance      float64  `yaml:"max_distance"`
	Rolloff          float64  `yaml:"rolloff"`
	TransitionTimeMS int      `yaml:"transition_time_ms"`
	SpatializerOrder []string `yaml:"spatializer_order"`
}

// TransitionTime returns TransitionTimeMS as seconds, matching the units
// [pkg/audio.Properties.TransitionTime] expects.
func (c AudioConfig) TransitionTime() float64 {
	return float64(c.TransitionTimeMS) / 1000
}

// DevicesConfig holds the operator's preferred device IDs (spec.md §3.3,
// §6.1's device-selection lifecycle); empty means no preferred device.
type DevicesConfig struct {
	PreferredAudioInput  string `yaml:"preferred_audio_input"`
	PreferredAudioOutput string `yaml:"preferred_audio_output"`
	PreferredVideoInput  string `yaml:"preferred_video_input"`
}

// InputConfig holds the game loop's input-handling tunables (spec.md §4.7).
type InputConfig struct {
	GamepadIndex       int `yaml:"gamepad_index"`
	MoveRepeatMS       int `yaml:"move_repeat_ms"`
	WaypointIntervalMS int `yaml:"waypoint_interval_ms"`
}

// RoomConfig describes one hosted room (spec.md §5's "supplemented" per-room
// hosting extension).
type RoomConfig struct {
	// Name is the room's unique identifier.
	Name string `yaml:"name"`

	// TileMap is the path to the room's tile-map asset. It is opaque to the
	// core (spec.md §1): only Width/Height/walkability are consumed, never
	// the concrete TMX format or rendering tiles.
	TileMap string `yaml:"tile_map"`
}

// PersistenceConfig configures the delegated key/value store boundary
// (spec.md §6.4): only the root path is meaningful here, since the store
// implementation itself is an external collaborator.
type PersistenceConfig struct {
	Path string `yaml:"path"`
}

// LogLevel is a validated logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognized LogLevel values.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return true
	default:
		return false
	}
}
