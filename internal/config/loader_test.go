package config_test

import (
	"strings"
	"testing"

	"github.com/roomspatial/roomspatial/internal/config"
)

func TestLoadFromReader_EmptyFailsMissingBackend(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err == nil {
		t.Fatal("expected error for missing conference.backend, got nil")
	}
	if !strings.Contains(err.Error(), "conference.backend") {
		t.Errorf("error should mention conference.backend, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  max_distance: 10
  spatializer_order: [direct]
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_MaxDistanceMustExceedMinDistance(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  min_distance: 10
  max_distance: 5
  spatializer_order: [direct]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for max_distance <= min_distance, got nil")
	}
	if !strings.Contains(err.Error(), "max_distance") {
		t.Errorf("error should mention max_distance, got: %v", err)
	}
}

func TestValidate_UnknownSpatializerName(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  max_distance: 10
  spatializer_order: [quantum]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown spatializer name, got nil")
	}
	if !strings.Contains(err.Error(), "quantum") {
		t.Errorf("error should mention the offending name, got: %v", err)
	}
}

func TestValidate_EmptySpatializerOrder(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  max_distance: 10
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for empty spatializer_order, got nil")
	}
	if !strings.Contains(err.Error(), "spatializer_order") {
		t.Errorf("error should mention spatializer_order, got: %v", err)
	}
}

func TestValidate_DuplicateRoomNames(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  max_distance: 10
  spatializer_order: [direct]
rooms:
  - name: lobby
    tile_map: a.tmx
  - name: lobby
    tile_map: b.tmx
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate room names, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_RoomMissingTileMap(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  max_distance: 10
  spatializer_order: [direct]
rooms:
  - name: lobby
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing tile_map, got nil")
	}
	if !strings.Contains(err.Error(), "tile_map") {
		t.Errorf("error should mention tile_map, got: %v", err)
	}
}

func TestValidate_NegativeHandshakeTimings(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
  handshake_timeout_ms: -1
audio:
  max_distance: 10
  spatializer_order: [direct]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative handshake_timeout_ms, got nil")
	}
}

func TestValidate_MultipleErrorsAreJoined(t *testing.T) {
	t.Parallel()
	yaml := `
audio:
  min_distance: 10
  max_distance: 5
  spatializer_order: [bogus]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "conference.backend") {
		t.Errorf("expected conference.backend error, got: %v", errStr)
	}
	if !strings.Contains(errStr, "max_distance") {
		t.Errorf("expected max_distance error, got: %v", errStr)
	}
	if !strings.Contains(errStr, "bogus") {
		t.Errorf("expected spatializer name error, got: %v", errStr)
	}
}

func TestValidate_WellFormedConfigPasses(t *testing.T) {
	t.Parallel()
	yaml := `
conference:
  backend: ws
audio:
  min_distance: 1
  max_distance: 15
  spatializer_order: [ambisonic, direct]
rooms:
  - name: lobby
    tile_map: lobby.tmx
  - name: hall
    tile_map: hall.tmx
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
