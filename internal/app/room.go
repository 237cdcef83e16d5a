package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/roomspatial/roomspatial/internal/conference"
	"github.com/roomspatial/roomspatial/internal/config"
	"github.com/roomspatial/roomspatial/internal/game"
	"github.com/roomspatial/roomspatial/internal/observe"
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/audio/headless"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// remotePose is the wire shape of a "pose" data-channel frame, matching
// game's internal poseCommand field-for-field so it decodes the same
// broadcasts a Loop emits (spec.md §4.6, §5).
type remotePose struct {
	PX, PY, PZ float64
	FX, FY, FZ float64
	UX, UY, UZ float64
}

func (p remotePose) position() spatial.Vector3 { return spatial.Vector3{X: p.PX, Y: p.PY, Z: p.PZ} }
func (p remotePose) forward() spatial.Vector3  { return spatial.Vector3{X: p.FX, Y: p.FY, Z: p.FZ} }
func (p remotePose) up() spatial.Vector3       { return spatial.Vector3{X: p.UX, Y: p.UY, Z: p.UZ} }

// HandshakeGrace pads the deadline requestInit puts on a handshake's context
// beyond conference.HandshakeBudget, and bounds how long a userInitResponse
// reply is allowed to take, so a slow SendMessage cannot outlive the
// handshake it's answering.
const HandshakeGrace = 250 * time.Millisecond

// UnmarshalJSON accepts the lower-case "px"/"py"/... tags game's poseCommand
// encodes, without depending on that unexported type.
func (p *remotePose) UnmarshalJSON(data []byte) error {
	var wire struct {
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
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = remotePose{
		PX: wire.PX, PY: wire.PY, PZ: wire.PZ,
		FX: wire.FX, FY: wire.FY, FZ: wire.FZ,
		UX: wire.UX, UY: wire.UY, UZ: wire.UZ,
	}
	return nil
}

// Room generalizes the single-session discipline the presence layer
// describes in spec.md §5 into one independently lifecycled triple per
// configured room: a conference.Client drives this process's own presence,
// an audio.AudioManager tracks pose bookkeeping and activity transitions for
// it, and a game.Loop ticks both together (SPEC_FULL.md §5 "Per-room
// hosting"). Rendering and per-participant spatialized playback remain a
// browser/WASM front end's concern; this process only coordinates.
type Room struct {
	Name string

	client      *conference.Client
	audioMgr    *audio.AudioManager
	headlessCtx *headless.Context
	loop        *game.Loop
	metrics     *observe.Metrics

	hostID string

	mu         sync.RWMutex
	remotes    map[string]*game.Avatar
	handshakes map[string]chan conference.UserInitResponse
	clock      float64

	cancel context.CancelFunc
}

// NewRoom constructs a Room from its configuration: it resolves the
// conference backend and spatializer chain through registry, builds a
// headless AudioManager (no real-time audio device attached; see
// pkg/audio/headless), and wires a game.Loop around the host's own avatar at
// the tile map's origin.
func NewRoom(rc config.RoomConfig, cc config.ConferenceConfig, ac config.AudioConfig, tm *game.Tilemap, registry *config.Registry, metrics *observe.Metrics) (*Room, error) {
	backend, err := registry.CreateBackend(cc.Backend, cc)
	if err != nil {
		return nil, fmt.Errorf("app: room %q: %w", rc.Name, err)
	}

	factories, err := registry.Spatializers(ac.SpatializerOrder)
	if err != nil {
		return nil, fmt.Errorf("app: room %q: %w", rc.Name, err)
	}

	props := audio.Properties{
		MinDistance:   ac.MinDistance,
		MaxDistance:   ac.MaxDistance,
		RolloffFactor: ac.Rolloff,
		TransitionTime: func() float64 {
			if ac.TransitionTimeMS <= 0 {
				return audio.DefaultProperties.TransitionTime
			}
			return ac.TransitionTime()
		}(),
	}

	hctx := headless.NewContext()
	audioMgr, variant, err := audio.NewAudioManager(hctx, factories, props, nil)
	if err != nil {
		return nil, fmt.Errorf("app: room %q: build audio manager: %w", rc.Name, err)
	}

	r := &Room{
		Name:        rc.Name,
		audioMgr:    audioMgr,
		headlessCtx: hctx,
		metrics:     metrics,
		hostID:      uuid.NewString(),
		remotes:     make(map[string]*game.Avatar),
		handshakes:  make(map[string]chan conference.UserInitResponse),
	}

	r.client = conference.NewClient(backend, conference.Handlers{
		conference.EventUserJoined:            r.onUserJoined,
		conference.EventUserLeft:              r.onUserLeft,
		conference.EventMessage:               r.onMessage,
		conference.EventDisconnected:          r.onDisconnected,
		conference.EventAudioMuteChanged:      r.onAudioMuteChanged,
		conference.EventVideoMuteChanged:      r.onVideoMuteChanged,
		conference.EventLocalAudioMuteChanged: r.onLocalMuteChanged,
		conference.EventLocalVideoMuteChanged: r.onLocalMuteChanged,
	})

	host := &game.Avatar{
		ID:   r.hostID,
		Pose: spatial.NewInterpolatedPose(spatial.Pose{}),
	}
	r.loop = game.NewLoop(tm, r.client, r.audioMgr, host)
	r.loop.OnTalkingChanged = r.onTalkingChanged

	slog.Info("app: room built", "room", rc.Name, "spatializer_variant", variant.String())
	return r, nil
}

// Connect dials the conference backend and joins as the host identity. It
// makes one attempt at each step and returns the first error; it does not
// retry, and a later loss of the connection is only logged by
// onDisconnected.
func (r *Room) Connect(ctx context.Context) error {
	if err := r.client.Connect(ctx, r.Name); err != nil {
		return fmt.Errorf("app: room %q: %w", r.Name, err)
	}
	if err := r.client.Join(ctx, r.hostID); err != nil {
		return fmt.Errorf("app: room %q: %w", r.Name, err)
	}
	return nil
}

// Run drives the room's tick loop at a fixed cadence until ctx is canceled.
// Each tick advances the shared audio clock, runs one game.Loop.Tick (no
// local input: this process has no avatar to steer by hand), and records
// the tick's own duration and current participant count.
func (r *Room) Run(ctx context.Context, rate time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	defer cancel()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			dt := rate.Seconds()
			r.headlessCtx.SetTime(t)
			r.clock = t

			tickStart := time.Now()
			r.loop.Tick(ctx, t, dt, game.Input{})
			if r.metrics != nil {
				r.metrics.TickDuration.Record(ctx, time.Since(tickStart).Seconds(),
					metric.WithAttributes(observe.Attr("room", r.Name)))
			}
		}
	}
}

// SetAudioProperties re-applies global spatialization parameters to every
// live source in the room, letting an operator change min/max distance,
// rolloff, or transition time without restarting the room
// (SPEC_FULL.md §5's config hot-reload supplement, a direct application of
// spec.md §4.4's setAudioProperties contract).
func (r *Room) SetAudioProperties(props audio.Properties) {
	r.audioMgr.SetAudioProperties(props)
}

// Ping reports whether the room's conference client still holds a live
// session, for use as a [health.Checker]. ctx is unused (the state check is
// local and non-blocking) but kept for the Checker.Check signature.
func (r *Room) Ping(_ context.Context) error {
	switch r.client.State() {
	case conference.StateConnected, conference.StateInConference:
		return nil
	default:
		return fmt.Errorf("app: room %q conference client in state %s", r.Name, r.client.State())
	}
}

// Shutdown leaves and disconnects the room's conference client. Safe to call
// even if Run was never started.
func (r *Room) Shutdown(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.client.State() == conference.StateInConference {
		if err := r.client.Leave(ctx); err != nil {
			slog.Warn("app: room leave failed", "room", r.Name, "err", err)
		}
	}
	return r.client.Disconnect(ctx)
}

// onUserJoined seeds the new participant's avatar and audio source, then
// runs the mid-session init handshake (spec.md §4.6) in the background to
// learn their real pose: a joiner's avatar starts at the zero pose and is
// retargeted once (if) a userInitResponse arrives.
func (r *Room) onUserJoined(ev conference.Event) {
	respCh := make(chan conference.UserInitResponse, 1)
	r.mu.Lock()
	r.remotes[ev.UserID] = &game.Avatar{
		ID:   ev.UserID,
		Pose: spatial.NewInterpolatedPose(spatial.Pose{}),
	}
	r.handshakes[ev.UserID] = respCh
	r.mu.Unlock()

	if err := r.audioMgr.CreateUser(ev.UserID, audio.SourceInput{}); err != nil {
		slog.Warn("app: create audio user failed", "room", r.Name, "user", ev.UserID, "err", err)
	}

	if r.metrics != nil {
		r.metrics.ActiveParticipants.Add(context.Background(), 1, metric.WithAttributes(observe.Attr("room", r.Name)))
	}
	slog.Info("app: participant joined", "room", r.Name, "user", ev.UserID)

	go r.requestInit(ev.UserID, respCh)
}

// requestInit drives PerformHandshake against the newly joined participant
// and, on a timely userInitResponse, retargets their avatar and audio source
// to the reported pose (spec.md §4.6, §8.1). A timeout leaves the avatar at
// its defaulted pose, per spec.md §4.6's failure taxonomy, and is logged
// rather than treated as an error.
func (r *Room) requestInit(userID string, respCh chan conference.UserInitResponse) {
	defer func() {
		r.mu.Lock()
		delete(r.handshakes, userID)
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), conference.HandshakeBudget+HandshakeGrace)
	defer cancel()

	received := make(chan struct{}, 1)
	respOnce := make(chan conference.UserInitResponse, 1)
	go func() {
		select {
		case resp := <-respCh:
			respOnce <- resp
			select {
			case received <- struct{}{}:
			default:
			}
		case <-ctx.Done():
		}
	}()

	send := func() error {
		return r.client.SendMessage(ctx, userID, "userInitRequest", conference.UserInitRequest{UserID: r.hostID})
	}

	if err := conference.PerformHandshake(ctx, send, received); err != nil {
		slog.Debug("app: userInit handshake did not complete", "room", r.Name, "user", userID, "err", err)
		return
	}

	var resp conference.UserInitResponse
	select {
	case resp = <-respOnce:
	default:
		return
	}

	r.mu.RLock()
	avatar, ok := r.remotes[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	pos := spatial.Vector3{X: resp.X, Y: resp.Y, Z: resp.Z}
	game.ApplyRemotePose(avatar, pos, spatial.DefaultForward, spatial.DefaultUp, r.clock)
	r.audioMgr.SetUserPose(userID, pos, spatial.DefaultForward, spatial.DefaultUp, r.clock)
	slog.Debug("app: userInit handshake completed", "room", r.Name, "user", userID)
}

func (r *Room) onUserLeft(ev conference.Event) {
	r.mu.Lock()
	delete(r.remotes, ev.UserID)
	delete(r.handshakes, ev.UserID)
	r.mu.Unlock()
	r.audioMgr.RemoveUser(ev.UserID)
	if r.metrics != nil {
		r.metrics.ActiveParticipants.Add(context.Background(), -1, metric.WithAttributes(observe.Attr("room", r.Name)))
	}
	slog.Info("app: participant left", "room", r.Name, "user", ev.UserID)
}

func (r *Room) onDisconnected(ev conference.Event) {
	if r.metrics != nil {
		r.metrics.RecordConferenceReconnect(context.Background(), r.Name)
	}
	slog.Warn("app: room disconnected", "room", r.Name, "err", ev.Err)
}

// onMessage applies an inbound "pose" frame to the sender's remote avatar,
// retargeting both its visual pose and, once it has live spatialized audio
// wired, its audio source (spec.md §5's within-tick ordering guarantee
// applies to locally-driven ticks; an out-of-band message like this one only
// asserts the new target, picked up on the room's next Tick). It also
// answers inbound "userInitRequest" frames and routes "userInitResponse"
// frames back to requestInit's waiting handshake (spec.md §4.6).
func (r *Room) onMessage(ev conference.Event) {
	frame, err := conference.DecodeFrame(ev.Payload)
	if err != nil {
		if err != conference.ErrNotOurProtocol {
			slog.Warn("app: malformed frame", "room", r.Name, "err", err)
		}
		return
	}

	switch frame.Command {
	case "pose":
		r.onPoseFrame(ev, frame)
	case "userInitRequest":
		r.onUserInitRequest(ev, frame)
	case "userInitResponse":
		r.onUserInitResponse(ev, frame)
	}
}

// onUserInitRequest replies to a peer's userInitRequest with this room's own
// current pose, the responder half of the mid-session handshake (spec.md
// §4.6).
func (r *Room) onUserInitRequest(ev conference.Event, frame conference.Frame) {
	var req conference.UserInitRequest
	if err := frame.DecodeValue(&req); err != nil {
		slog.Warn("app: malformed userInitRequest frame", "room", r.Name, "user", ev.UserID, "err", err)
		return
	}

	pose := r.loop.Local.Pose.Current()
	resp := conference.UserInitResponse{
		UserID: r.hostID,
		X:      pose.P.X,
		Y:      pose.P.Y,
		Z:      pose.P.Z,
	}
	ctx, cancel := context.WithTimeout(context.Background(), HandshakeGrace)
	defer cancel()
	if err := r.client.SendMessage(ctx, ev.UserID, "userInitResponse", resp); err != nil {
		slog.Warn("app: failed to answer userInitRequest", "room", r.Name, "user", ev.UserID, "err", err)
	}
}

// onUserInitResponse hands an inbound userInitResponse to the pending
// requestInit goroutine waiting on it, if any (a late or duplicate response
// after the handshake's budget expired is simply dropped).
func (r *Room) onUserInitResponse(ev conference.Event, frame conference.Frame) {
	var resp conference.UserInitResponse
	if err := frame.DecodeValue(&resp); err != nil {
		slog.Warn("app: malformed userInitResponse frame", "room", r.Name, "user", ev.UserID, "err", err)
		return
	}

	r.mu.RLock()
	respCh, ok := r.handshakes[ev.UserID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case respCh <- resp:
	default:
	}
}

func (r *Room) onPoseFrame(ev conference.Event, frame conference.Frame) {
	var pose remotePose
	if err := frame.DecodeValue(&pose); err != nil {
		slog.Warn("app: malformed pose frame", "room", r.Name, "user", ev.UserID, "err", err)
		return
	}

	r.mu.RLock()
	avatar, ok := r.remotes[ev.UserID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	game.ApplyRemotePose(avatar, pose.position(), pose.forward(), pose.up(), r.clock)
	r.audioMgr.SetUserPose(ev.UserID, pose.position(), pose.forward(), pose.up(), r.clock)
	if r.metrics != nil {
		r.metrics.RecordPoseUpdate(context.Background(), "remote")
	}
}

func (r *Room) onTalkingChanged(id string, talking bool) {
	if r.metrics != nil {
		r.metrics.RecordActivityTransition(context.Background(), talking)
	}
	slog.Debug("app: talking state changed", "room", r.Name, "user", id, "talking", talking)
}

// onAudioMuteChanged and onVideoMuteChanged log a remote participant's mute
// transition (spec.md §4.6's audioMuteStatusChanged/videoMuteStatusChanged).
// A headless room has no UI to update directly; a front end subscribing to
// the same backend would register its own handler for these EventTypes.
func (r *Room) onAudioMuteChanged(ev conference.Event) {
	slog.Info("app: remote audio mute changed", "room", r.Name, "user", ev.UserID, "muted", ev.Muted)
}

func (r *Room) onVideoMuteChanged(ev conference.Event) {
	slog.Info("app: remote video mute changed", "room", r.Name, "user", ev.UserID, "muted", ev.Muted)
}

// onLocalMuteChanged logs the host's own mute transitions
// (localAudioMuteStatusChanged/localVideoMuteStatusChanged), fired by
// conference.Client.SetAudioMutedAsync/SetVideoMutedAsync rather than an
// inbound frame.
func (r *Room) onLocalMuteChanged(ev conference.Event) {
	slog.Info("app: local mute changed", "room", r.Name, "type", ev.Type, "muted", ev.Muted)
}
