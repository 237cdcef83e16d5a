package game

import "math"

// moveRepeat is the debounce interval between accepted discrete move
// inputs, per spec.md §4.7.
const moveRepeat = 0.125

// transitionSpeed is the default seconds-per-waypoint for a click-to-walk
// path, per spec.md §4.7.
const transitionSpeed = 0.125

// Input is one frame's collated movement/zoom request from keyboard,
// pointer, or gamepad sources (spec.md §4.7 "Input → pose"). Exactly one
// of (Dx,Dy) or WarpTo is meaningful per frame; a caller driving continuous
// movement sets Dx/Dy, a caller handling a click-to-walk sets WarpTo.
type Input struct {
	Dx, Dy float64 // discrete step direction, in {-1, 0, 1} per axis
	Dzoom  float64 // raw zoom delta from the input device

	WarpTo    *TileCoord // non-nil on a click-to-walk request
	Diagonal  bool       // whether click-to-walk may cut diagonals
}

// moveDebouncer rate-limits discrete move inputs to at most one accepted
// step every moveRepeat seconds.
type moveDebouncer struct {
	lastAccepted float64
	armed        bool
}

// Allow reports whether a move input arriving at time t should be accepted,
// recording t as the new debounce baseline if so.
func (d *moveDebouncer) Allow(t float64) bool {
	if d.armed && t-d.lastAccepted < moveRepeat {
		return false
	}
	d.lastAccepted = t
	d.armed = true
	return true
}

// waypointQueue holds the pending tile coordinates of an in-progress
// click-to-walk path, consuming one waypoint every transitionSpeed seconds.
type waypointQueue struct {
	points      []TileCoord
	elapsed     float64
	perWaypoint float64
}

// newWaypointQueue seeds a queue from an A*-computed path, dropping the
// first point (the avatar's current tile).
func newWaypointQueue(path []TileCoord) *waypointQueue {
	if len(path) <= 1 {
		return &waypointQueue{perWaypoint: transitionSpeed}
	}
	return &waypointQueue{points: path[1:], perWaypoint: transitionSpeed}
}

// Empty reports whether the queue has no remaining waypoints.
func (q *waypointQueue) Empty() bool {
	return len(q.points) == 0
}

// Advance accumulates dt and reports the next waypoint to move to, if the
// per-waypoint budget has elapsed. Consumes that waypoint from the queue.
func (q *waypointQueue) Advance(dt float64) (TileCoord, bool) {
	if q.Empty() {
		return TileCoord{}, false
	}
	q.elapsed += dt
	if q.elapsed < q.perWaypoint {
		return TileCoord{}, false
	}
	q.elapsed -= q.perWaypoint
	next := q.points[0]
	q.points = q.points[1:]
	return next, true
}

// ZoomCurve shapes a raw zoom delta with a squared-exponential curve,
// yielding finer control near unity zoom (spec.md §4.7). raw is typically
// a small signed delta from a scroll wheel or pinch gesture; the result is
// a signed relative change, and Loop multiplies the current zoom level by
// 1 plus it.
func ZoomCurve(raw float64) float64 {
	sign := 1.0
	if raw < 0 {
		sign = -1.0
	}
	return sign * raw * raw
}

// ClampZoom restricts zoom to [min, max].
func ClampZoom(zoom, min, max float64) float64 {
	return math.Max(min, math.Min(max, zoom))
}
