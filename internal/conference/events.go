package conference

import "errors"

// EventType is the fixed, normalized set of events any Backend can emit
// (spec.md §4.6). A Backend maps whatever vocabulary its underlying
// transport uses onto this set, so Client never needs transport-specific
// knowledge.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventUserJoined
	EventUserLeft
	EventTrackAdded
	EventTrackRemoved
	EventMessage
	EventError

	// EventAudioMuteChanged/EventVideoMuteChanged normalize a remote
	// participant's audioMuteStatusChanged/videoMuteStatusChanged
	// (spec.md §4.6); EventLocalAudioMuteChanged/EventLocalVideoMuteChanged
	// fire for the local user's own localAudioMuteStatusChanged/
	// localVideoMuteStatusChanged, driven by [Client.SetAudioMutedAsync]/
	// [Client.SetVideoMutedAsync] rather than an inbound frame.
	EventAudioMuteChanged
	EventVideoMuteChanged
	EventLocalAudioMuteChanged
	EventLocalVideoMuteChanged
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventUserJoined:
		return "user-joined"
	case EventUserLeft:
		return "user-left"
	case EventTrackAdded:
		return "track-added"
	case EventTrackRemoved:
		return "track-removed"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventAudioMuteChanged:
		return "audio-mute-changed"
	case EventVideoMuteChanged:
		return "video-mute-changed"
	case EventLocalAudioMuteChanged:
		return "local-audio-mute-changed"
	case EventLocalVideoMuteChanged:
		return "local-video-mute-changed"
	default:
		return "unknown"
	}
}

// Event is one normalized occurrence from a Backend.
type Event struct {
	Type    EventType
	UserID  string
	Track   Track
	Payload []byte
	Err     error

	// Muted carries the new mute state for the four mute EventTypes.
	Muted bool
}

// ErrUnknownEvent is returned by Dispatch when no handler is registered for
// an event's type. The reference implementation throws synchronously on an
// unrecognized event rather than swallowing it (spec.md §4.6); returning an
// error from Dispatch is the idiomatic Go equivalent — callers that don't
// check it will not see their Backend-driving goroutine silently stall.
var ErrUnknownEvent = errors.New("conference: no handler registered for event type")

// Handlers maps each EventType a caller cares about to its callback.
type Handlers map[EventType]func(Event)

// Dispatch invokes the handler registered for ev.Type, or returns
// ErrUnknownEvent if none is registered.
func (h Handlers) Dispatch(ev Event) error {
	fn, ok := h[ev.Type]
	if !ok {
		return ErrUnknownEvent
	}
	fn(ev)
	return nil
}
