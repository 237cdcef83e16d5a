// Package conference implements the presence/session-coordination layer
// (spec.md §4.6): the abstract Backend contract every conference transport
// implements, the client state machine built on top of it, the app-level
// data-channel protocol, the mid-session init handshake, and device
// selection.
package conference

import "context"

// TrackKind distinguishes the media carried by a Track.
type TrackKind int

const (
	TrackAudio TrackKind = iota
	TrackVideo
)

// Track identifies one published media track.
type Track struct {
	ID   string
	Kind TrackKind
}

// Backend abstracts the transport connecting this process to a room's
// conference (spec.md §6.1). A concrete Backend owns the actual signaling
// and media transport (see wsbackend for the reference implementation
// built on WebSocket signaling); Client drives any Backend identically.
type Backend interface {
	// Connect establishes the underlying transport to roomID, without yet
	// publishing any tracks or announcing presence.
	Connect(ctx context.Context, roomID string) error

	// Join announces this participant to the room under userID.
	Join(ctx context.Context, userID string) error

	// Leave withdraws this participant from the room without tearing down
	// the transport connection.
	Leave(ctx context.Context) error

	// AddTrack publishes a local media track.
	AddTrack(ctx context.Context, track Track) error

	// RemoveTrack withdraws a previously published track.
	RemoveTrack(ctx context.Context, trackID string) error

	// SendMessage delivers an app-level payload to userID over the opaque
	// data channel, or broadcasts to the room if userID is empty.
	SendMessage(ctx context.Context, userID string, payload []byte) error

	// Events returns the channel of normalized events this Backend emits.
	// It is closed when the Backend is closed.
	Events() <-chan Event

	// Close tears down the transport entirely.
	Close() error
}
