package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values (spec.md §6,
// §9's range constraints on distance/rolloff/timeouts).
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Conference.Backend == "" {
		errs = append(errs, errors.New("conference.backend is required"))
	}
	if cfg.Conference.HandshakeTimeoutMS < 0 {
		errs = append(errs, errors.New("conference.handshake_timeout_ms must not be negative"))
	}
	if cfg.Conference.HandshakeRetryMS < 0 {
		errs = append(errs, errors.New("conference.handshake_retry_ms must not be negative"))
	}

	if cfg.Audio.MinDistance < 0 {
		errs = append(errs, errors.New("audio.min_distance must not be negative"))
	}
	if cfg.Audio.MaxDistance <= cfg.Audio.MinDistance {
		errs = append(errs, fmt.Errorf("audio.max_distance (%.2f) must be greater than audio.min_distance (%.2f)", cfg.Audio.MaxDistance, cfg.Audio.MinDistance))
	}
	if cfg.Audio.Rolloff < 0 {
		errs = append(errs, errors.New("audio.rolloff must not be negative"))
	}
	if len(cfg.Audio.SpatializerOrder) == 0 {
		errs = append(errs, errors.New("audio.spatializer_order must list at least one variant"))
	}
	for _, name := range cfg.Audio.SpatializerOrder {
		if !validSpatializerNames[name] {
			errs = append(errs, fmt.Errorf("audio.spatializer_order: unknown variant %q; valid values: ambisonic, modern-panner, legacy-panner, direct", name))
		}
	}

	roomNamesSeen := make(map[string]int, len(cfg.Rooms))
	for i, room := range cfg.Rooms {
		prefix := fmt.Sprintf("rooms[%d]", i)
		if room.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := roomNamesSeen[room.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of rooms[%d]", prefix, room.Name, prev))
		}
		roomNamesSeen[room.Name] = i
		if room.TileMap == "" {
			errs = append(errs, fmt.Errorf("%s.tile_map is required", prefix))
		}
	}

	return errors.Join(errs...)
}

// validSpatializerNames lists the spatializer variant names recognised in
// audio.spatializer_order (spec.md §4.3), matching the names under which the
// reference variants are registered with [Registry.RegisterSpatializer].
var validSpatializerNames = map[string]bool{
	"ambisonic":     true,
	"modern-panner": true,
	"legacy-panner": true,
	"direct":        true,
}
