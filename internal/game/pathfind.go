package game

import (
	"container/heap"
	"math"
)

// TileCoord is an integer grid coordinate.
type TileCoord struct {
	X, Y int
}

// diagonalCost is the move cost of an 8-connected diagonal step, per
// spec.md §4.7.
const diagonalCost = math.Sqrt2

// neighborOffsets4 lists the 4-connected step directions.
var neighborOffsets4 = []TileCoord{
	{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0},
}

// neighborOffsets8 lists the 8-connected step directions (4-connected plus
// diagonals).
var neighborOffsets8 = []TileCoord{
	{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0},
	{X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// FindPath computes an A* path from start to goal over m, 4- or
// 8-connected depending on diagonal, respecting canSwim for water tiles
// (spec.md §4.7). Returns the path including both start and goal, or
// (nil, false) if no path exists.
func FindPath(m *Tilemap, start, goal TileCoord, diagonal, canSwim bool) ([]TileCoord, bool) {
	if !m.Walkable(start.X, start.Y, canSwim) || !m.Walkable(goal.X, goal.Y, canSwim) {
		return nil, false
	}
	if start == goal {
		return []TileCoord{start}, true
	}

	offsets := neighborOffsets4
	if diagonal {
		offsets = neighborOffsets8
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{coord: start, g: 0, f: heuristic(start, goal, diagonal)})

	cameFrom := make(map[TileCoord]TileCoord)
	gScore := map[TileCoord]float64{start: 0}
	closed := make(map[TileCoord]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if closed[current.coord] {
			continue
		}
		if current.coord == goal {
			return reconstructPath(cameFrom, start, goal), true
		}
		closed[current.coord] = true

		for _, off := range offsets {
			next := TileCoord{X: current.coord.X + off.X, Y: current.coord.Y + off.Y}
			if !m.Walkable(next.X, next.Y, canSwim) {
				continue
			}
			if diagonal && off.X != 0 && off.Y != 0 {
				// Disallow cutting a diagonal between two blocking orthogonal
				// tiles, matching how the tile grid's walls read visually.
				if !m.Walkable(current.coord.X+off.X, current.coord.Y, canSwim) ||
					!m.Walkable(current.coord.X, current.coord.Y+off.Y, canSwim) {
					continue
				}
			}

			stepCost := 1.0
			if off.X != 0 && off.Y != 0 {
				stepCost = diagonalCost
			}
			tentativeG := current.g + stepCost

			if existing, ok := gScore[next]; ok && tentativeG >= existing {
				continue
			}
			cameFrom[next] = current.coord
			gScore[next] = tentativeG
			heap.Push(open, &pathNode{
				coord: next,
				g:     tentativeG,
				f:     tentativeG + heuristic(next, goal, diagonal),
			})
		}
	}

	return nil, false
}

func heuristic(a, b TileCoord, diagonal bool) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if !diagonal {
		return dx + dy
	}
	// Octile distance: diagonal steps cover both axes at once.
	return math.Max(dx, dy) + (diagonalCost-1)*math.Min(dx, dy)
}

func reconstructPath(cameFrom map[TileCoord]TileCoord, start, goal TileCoord) []TileCoord {
	path := []TileCoord{goal}
	for cur := goal; cur != start; {
		prev := cameFrom[cur]
		path = append(path, prev)
		cur = prev
	}
	// Reverse into start→goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// pathNode is one entry in the A* open set's priority queue.
type pathNode struct {
	coord TileCoord
	g     float64 // cost from start
	f     float64 // g + heuristic
}

// nodeHeap implements container/heap.Interface as a min-heap ordered by f.
type nodeHeap []*pathNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(*pathNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}
