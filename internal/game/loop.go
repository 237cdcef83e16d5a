package game

import (
	"context"
	"log/slog"

	"github.com/roomspatial/roomspatial/internal/conference"
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// poseCommand is the app-level message value carried over the data
// channel to announce a pose change to the rest of the room, framed as a
// Calla-protocol Frame by Client.SendMessage.
type poseCommand struct {
	PX float64 `json:"px"`
	PY float64 `json:"py"`
	PZ float64 `json:"pz"`
	FX float64 `json:"fx"`
	FY float64 `json:"fy"`
	FZ float64 `json:"fz"`
	UX float64 `json:"ux"`
	UY float64 `json:"uy"`
	UZ float64 `json:"uz"`
}

// Avatar is one participant's on-screen/in-audio presence: a position the
// tick loop advances from input (for the local avatar) or from incoming
// pose messages (for remote avatars), and the InterpolatedPose driving
// smooth motion between keyframes.
type Avatar struct {
	ID      string
	Pose    *spatial.InterpolatedPose
	CanSwim bool

	tile TileCoord
	path *waypointQueue
}

// Loop is the per-room tick scheduler (spec.md §4.7): one call to Tick is
// one animation frame. It reads local input, advances the local avatar's
// pose and waypoint queue, drives the conference client (outbound pose
// broadcast only; Tick reads no inbound events), drives the audio manager (listener and
// source refresh), and leaves rendering to the caller, which runs after
// Tick returns and may safely read everything Tick just updated.
type Loop struct {
	Map        *Tilemap
	Conference *conference.Client
	Audio      *audio.AudioManager

	Local *Avatar

	debounce moveDebouncer
	zoom     float64

	// OnTalkingChanged, if set, is invoked with the ids whose speaking state
	// flipped this tick (spec.md §4.5's UI feedback hook).
	OnTalkingChanged func(id string, talking bool)
}

// NewLoop constructs a Loop over m for the local avatar, bound to the given
// conference client and audio manager.
func NewLoop(m *Tilemap, conf *conference.Client, am *audio.AudioManager, local *Avatar) *Loop {
	return &Loop{Map: m, Conference: conf, Audio: am, Local: local, zoom: 1}
}

// Tick advances the loop by one frame: t is the current audio-clock
// timestamp (seconds), dt the frame's elapsed time (seconds), and in the
// frame's collated input. Ordering matches spec.md §4.7 precisely: (1)
// input already read by the caller into in; (2) local pose + waypoint
// advance; (3) ConferenceClient pose broadcast; (4) AudioManager refresh.
func (l *Loop) Tick(ctx context.Context, t, dt float64, in Input) {
	l.applyZoom(in.Dzoom)

	moved := l.advanceLocal(t, dt, in)

	if l.Local != nil {
		l.Local.Pose.Update(t)
	}

	// Local pose is broadcast only after it has been applied locally, so
	// remote peers observe the same transform the local user experiences
	// (spec.md §5).
	if moved {
		l.broadcastLocalPose(ctx, t)
	}

	// Listener pose must be applied before any remote source update so that
	// sources compute relative positions against a fresh listener (spec.md
	// §5's within-tick ordering guarantee).
	if l.Audio != nil && l.Local != nil {
		cur := l.Local.Pose.Current()
		l.Audio.SetListenerPose(cur.P, cur.F, cur.U, t)
	}

	if l.Audio != nil {
		changed := l.Audio.Update(t)
		if l.OnTalkingChanged != nil {
			for id, talking := range changed {
				l.OnTalkingChanged(id, talking)
			}
		}
	}
}

// advanceLocal applies in to the local avatar's position: either a
// debounced discrete step, or the next consumed waypoint of an
// in-progress click-to-walk path. Returns whether the avatar's target pose
// changed this tick.
func (l *Loop) advanceLocal(t, dt float64, in Input) bool {
	if l.Local == nil {
		return false
	}

	if in.WarpTo != nil {
		path, ok := FindPath(l.Map, l.Local.tile, *in.WarpTo, in.Diagonal, l.Local.CanSwim)
		if !ok {
			slog.Debug("game: no path to requested tile", "from", l.Local.tile, "to", *in.WarpTo)
		} else {
			l.Local.path = newWaypointQueue(path)
		}
	}

	if l.Local.path != nil && !l.Local.path.Empty() {
		if next, ok := l.Local.path.Advance(dt); ok {
			return l.moveLocalTo(next, t)
		}
		return false
	}

	if in.Dx == 0 && in.Dy == 0 {
		return false
	}
	if !l.debounce.Allow(t) {
		return false
	}
	next := TileCoord{X: l.Local.tile.X + int(in.Dx), Y: l.Local.tile.Y + int(in.Dy)}
	if !l.Map.Walkable(next.X, next.Y, l.Local.CanSwim) {
		return false
	}
	return l.moveLocalTo(next, t)
}

func (l *Loop) moveLocalTo(tile TileCoord, t float64) bool {
	l.Local.tile = tile
	cur := l.Local.Pose.Current()
	target := spatial.Vector3{X: float64(tile.X), Y: cur.P.Y, Z: float64(tile.Y)}
	l.Local.Pose.SetTarget(target, cur.F, cur.U, t, transitionSpeed)
	return true
}

func (l *Loop) applyZoom(raw float64) {
	if raw == 0 {
		return
	}
	l.zoom = ClampZoom(l.zoom*(1+ZoomCurve(raw)), 0.25, 4)
}

// Zoom reports the current camera zoom factor.
func (l *Loop) Zoom() float64 { return l.zoom }

// broadcastLocalPose sends the local avatar's current pose to the rest of
// the room over the conference data channel. Per spec.md §5, this happens
// after the local pose has been applied, so remote peers observe the same
// transform the local user experiences; it is fire-and-forget, matching
// "no suspension points in the tick body."
func (l *Loop) broadcastLocalPose(ctx context.Context, t float64) {
	if l.Conference == nil {
		return
	}
	cur := l.Local.Pose.Current()
	cmd := poseCommand{
		PX: cur.P.X, PY: cur.P.Y, PZ: cur.P.Z,
		FX: cur.F.X, FY: cur.F.Y, FZ: cur.F.Z,
		UX: cur.U.X, UY: cur.U.Y, UZ: cur.U.Z,
	}
	if err := l.Conference.SendMessage(ctx, "", "pose", cmd); err != nil {
		slog.Warn("game: pose broadcast failed", "avatar_id", l.Local.ID, "err", err)
	}
}

// ApplyRemotePose updates a remote avatar's target pose from an inbound
// pose message, retargeting its InterpolatedPose the same way SetUserPose
// retargets an audio source.
func ApplyRemotePose(avatar *Avatar, p, forward, up spatial.Vector3, t float64) {
	avatar.Pose.SetTarget(p, forward, up, t, transitionSpeed)
}
