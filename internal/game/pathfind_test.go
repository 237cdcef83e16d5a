package game

import "testing"

func TestFindPath_StraightLine(t *testing.T) {
	m := NewTilemap(5, 1)
	path, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 4, Y: 0}, false, false)
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5", len(path))
	}
	if path[0] != (TileCoord{X: 0, Y: 0}) || path[len(path)-1] != (TileCoord{X: 4, Y: 0}) {
		t.Errorf("path endpoints = %v..%v, want (0,0)..(4,0)", path[0], path[len(path)-1])
	}
}

func TestFindPath_RoutesAroundWall(t *testing.T) {
	m := NewTilemap(3, 3)
	// Wall across the middle row except the last column.
	m.Set(0, 1, Tile{Kind: TileWall})
	m.Set(1, 1, Tile{Kind: TileWall})

	path, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 0, Y: 2}, false, false)
	if !ok {
		t.Fatal("expected a path around the wall")
	}
	for _, c := range path {
		if m.At(c.X, c.Y).Kind == TileWall {
			t.Fatalf("path crosses a wall tile at %v", c)
		}
	}
}

func TestFindPath_NoPathReturnsFalse(t *testing.T) {
	m := NewTilemap(3, 3)
	for x := 0; x < 3; x++ {
		m.Set(x, 1, Tile{Kind: TileWall})
	}
	_, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 0, Y: 2}, false, false)
	if ok {
		t.Error("expected no path across a complete wall with no diagonals")
	}
}

func TestFindPath_DiagonalShortcut(t *testing.T) {
	m := NewTilemap(3, 3)
	path, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 2, Y: 2}, true, false)
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path) != 3 {
		t.Fatalf("diagonal path length = %d, want 3 (two diagonal steps)", len(path))
	}
}

func TestFindPath_DiagonalCannotCutBlockedCorner(t *testing.T) {
	m := NewTilemap(3, 3)
	m.Set(1, 0, Tile{Kind: TileWall})
	m.Set(0, 1, Tile{Kind: TileWall})

	// (0,0) is boxed in: both orthogonal neighbours are walls and the grid
	// edge closes off the rest, so with corner-cutting forbidden no path
	// exists at all.
	path, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 1, Y: 1}, true, false)
	if ok {
		t.Fatalf("path = %v; want none, since the only route is the blocked diagonal", path)
	}
	if len(path) == 2 {
		t.Error("path should not cut the diagonal between two blocking orthogonal walls")
	}
}

func TestFindPath_RequiresCanSwimForWater(t *testing.T) {
	m := NewTilemap(3, 1)
	m.Set(1, 0, Tile{Kind: TileWater})

	if _, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 2, Y: 0}, false, false); ok {
		t.Error("expected no path across water without canSwim")
	}
	if _, ok := FindPath(m, TileCoord{X: 0, Y: 0}, TileCoord{X: 2, Y: 0}, false, true); !ok {
		t.Error("expected a path across water with canSwim")
	}
}

func TestFindPath_SameStartAndGoal(t *testing.T) {
	m := NewTilemap(2, 2)
	path, ok := FindPath(m, TileCoord{X: 1, Y: 1}, TileCoord{X: 1, Y: 1}, false, false)
	if !ok || len(path) != 1 {
		t.Fatalf("path = %v, ok = %v; want single-element path", path, ok)
	}
}
