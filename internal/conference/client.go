package conference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a Client's position in the connection lifecycle (spec.md §4.6):
//
//	Idle -> Connecting -> Connected -> InConference -> Disconnecting -> Idle
//
// Leave returns to Connected (the transport stays up); Disconnect tears the
// transport down from any state and returns to Idle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateInConference
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateInConference:
		return "in-conference"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an operation is attempted from a
// State that does not permit it.
var ErrInvalidTransition = errors.New("conference: invalid state transition")

// Client drives a Backend through the connection lifecycle and fans its
// events out to registered Handlers. It is safe for concurrent use.
type Client struct {
	backend Backend

	mu         sync.Mutex
	state      State
	roomID     string
	userID     string
	audioMuted bool
	videoMuted bool

	handlers Handlers
	cancel   context.CancelFunc
}

// NewClient constructs a Client around backend, starting in StateIdle.
func NewClient(backend Backend, handlers Handlers) *Client {
	return &Client{backend: backend, state: StateIdle, handlers: handlers}
}

// State returns the Client's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the Backend's transport to roomID and starts the
// event pump. Valid only from StateIdle.
func (c *Client) Connect(ctx context.Context, roomID string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: Connect from %s", ErrInvalidTransition, c.state)
	}
	c.state = StateConnecting
	c.roomID = roomID
	c.mu.Unlock()

	pumpCtx, cancel := context.WithCancel(ctx)
	if err := c.backend.Connect(ctx, roomID); err != nil {
		cancel()
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("conference: connect to room %q: %w", roomID, err)
	}

	c.mu.Lock()
	c.state = StateConnected
	c.cancel = cancel
	c.mu.Unlock()

	go c.pumpEvents(pumpCtx)
	return nil
}

// Join announces userID to the room. Valid only from StateConnected.
func (c *Client) Join(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return fmt.Errorf("%w: Join from %s", ErrInvalidTransition, c.state)
	}
	c.mu.Unlock()

	if err := c.backend.Join(ctx, userID); err != nil {
		return fmt.Errorf("conference: join as %q: %w", userID, err)
	}

	c.mu.Lock()
	c.userID = userID
	c.state = StateInConference
	c.mu.Unlock()
	return nil
}

// Leave withdraws from the conference but keeps the transport connected.
// Valid only from StateInConference.
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInConference {
		c.mu.Unlock()
		return fmt.Errorf("%w: Leave from %s", ErrInvalidTransition, c.state)
	}
	c.mu.Unlock()

	if err := c.backend.Leave(ctx); err != nil {
		return fmt.Errorf("conference: leave: %w", err)
	}

	c.mu.Lock()
	c.state = StateConnected
	c.mu.Unlock()
	return nil
}

// Disconnect tears the transport down entirely and returns to StateIdle.
// Calling it while already in StateIdle is a no-op that returns nil.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = StateDisconnecting
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := c.backend.Close()

	c.mu.Lock()
	c.state = StateIdle
	c.roomID = ""
	c.userID = ""
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("conference: disconnect: %w", err)
	}
	return nil
}

// SendMessage delivers an app-level frame to userID (or broadcasts if
// userID is empty).
func (c *Client) SendMessage(ctx context.Context, userID, command string, value any) error {
	data, err := EncodeFrame(command, value)
	if err != nil {
		return err
	}
	return c.backend.SendMessage(ctx, userID, data)
}

// pumpEvents reads from the Backend's event channel and dispatches each
// event to c.handlers until ctx is canceled or the channel closes.
func (c *Client) pumpEvents(ctx context.Context) {
	events := c.backend.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if c.handlers == nil {
				continue
			}
			_ = c.handlers.Dispatch(normalizeMuteFrame(ev)) // unregistered event types are intentionally ignored here
		}
	}
}

// muteStatus is the value payload of an audioMuteStatusChanged /
// videoMuteStatusChanged Frame (spec.md §4.6's event normalization).
type muteStatus struct {
	UserID string `json:"userID"`
	Muted  bool   `json:"muted"`
}

// normalizeMuteFrame rewrites an inbound audioMuteStatusChanged /
// videoMuteStatusChanged app-level frame into its own EventType, so Handlers
// can register for a remote participant's mute transitions directly instead
// of parsing every EventMessage by hand. Frames this Client doesn't
// recognize as a mute frame pass through as EventMessage unchanged.
func normalizeMuteFrame(ev Event) Event {
	if ev.Type != EventMessage {
		return ev
	}
	frame, err := DecodeFrame(ev.Payload)
	if err != nil {
		return ev
	}

	var muteType EventType
	switch frame.Command {
	case "audioMuteStatusChanged":
		muteType = EventAudioMuteChanged
	case "videoMuteStatusChanged":
		muteType = EventVideoMuteChanged
	default:
		return ev
	}

	var body muteStatus
	if err := frame.DecodeValue(&body); err != nil {
		return ev
	}
	return Event{Type: muteType, UserID: body.UserID, Muted: body.Muted}
}

// SetAudioMutedAsync idempotently asserts the local audio mute state: per
// spec.md §4.6 it only acts if the current state differs. On a real change
// it broadcasts audioMuteStatusChanged to the room and dispatches
// EventLocalAudioMuteChanged locally, so a UI-facing handler observes its own
// transition without waiting on the round trip back through the backend.
func (c *Client) SetAudioMutedAsync(ctx context.Context, muted bool) error {
	return c.setMutedAsync(ctx, &c.audioMuted, muted, "audioMuteStatusChanged", EventLocalAudioMuteChanged)
}

// ToggleAudioMuted flips the local audio mute state and returns the value it
// was set to.
func (c *Client) ToggleAudioMuted(ctx context.Context) (bool, error) {
	c.mu.Lock()
	next := !c.audioMuted
	c.mu.Unlock()
	return next, c.SetAudioMutedAsync(ctx, next)
}

// SetVideoMutedAsync mirrors SetAudioMutedAsync for the local video track.
func (c *Client) SetVideoMutedAsync(ctx context.Context, muted bool) error {
	return c.setMutedAsync(ctx, &c.videoMuted, muted, "videoMuteStatusChanged", EventLocalVideoMuteChanged)
}

// ToggleVideoMuted mirrors ToggleAudioMuted for the local video track.
func (c *Client) ToggleVideoMuted(ctx context.Context) (bool, error) {
	c.mu.Lock()
	next := !c.videoMuted
	c.mu.Unlock()
	return next, c.SetVideoMutedAsync(ctx, next)
}

func (c *Client) setMutedAsync(ctx context.Context, state *bool, muted bool, command string, localEvent EventType) error {
	c.mu.Lock()
	if *state == muted {
		c.mu.Unlock()
		return nil
	}
	*state = muted
	userID := c.userID
	c.mu.Unlock()

	if err := c.SendMessage(ctx, "", command, muteStatus{UserID: userID, Muted: muted}); err != nil {
		return fmt.Errorf("conference: broadcast %s: %w", command, err)
	}
	if c.handlers != nil {
		_ = c.handlers.Dispatch(Event{Type: localEvent, UserID: userID, Muted: muted})
	}
	return nil
}
