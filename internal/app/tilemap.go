package app

import "github.com/roomspatial/roomspatial/internal/game"

// defaultRoomWidth and defaultRoomHeight size the open floor plan
// DefaultTileMapLoader builds when no real tile-map asset is wired in.
const (
	defaultRoomWidth  = 32
	defaultRoomHeight = 32
)

// TileMapLoader resolves a RoomConfig.TileMap path into a *game.Tilemap.
// Parsing the actual TMX asset format is a UI-layer/front-end concern
// (spec.md §1 Non-goals); this seam exists so a real loader can be injected
// via WithTileMapLoader once one is available, without App needing to know
// about TMX at all.
type TileMapLoader func(path string) (*game.Tilemap, error)

// DefaultTileMapLoader ignores path and returns an open, entirely walkable
// floor — a stand-in room shape sufficient to exercise pathfinding and
// avatar movement until a real TMX-backed loader is wired in.
func DefaultTileMapLoader(_ string) (*game.Tilemap, error) {
	return game.NewTilemap(defaultRoomWidth, defaultRoomHeight), nil
}
