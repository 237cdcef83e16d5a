package wsbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/roomspatial/roomspatial/internal/conference"
)

// Backend is the client-side conference.Backend implementation: it dials a
// Hub's WebSocket endpoint and translates the wire envelope protocol into
// conference's normalized Event stream.
//
// Media tracks (AddTrack/RemoveTrack) are bookkeeping only here: this
// reference Backend carries presence and the app data-channel protocol, not
// audio/video media, which is a separate collaborator concern (spec.md
// §6.1, SPEC_FULL.md §4). A deployment wanting real media wires a SFU or
// WebRTC mesh alongside this Backend using the same userID namespace.
type Backend struct {
	url    string
	dialer func(ctx context.Context, url string) (*websocket.Conn, error)

	mu         sync.Mutex
	roomQueued string // set by Connect, consumed by Join, which performs the actual dial
	conn       *websocket.Conn
	userID     string
	cancel     context.CancelFunc

	events chan conference.Event
}

// New constructs a Backend that dials baseURL (a ws:// or wss:// URL
// pointing at a Hub's ServeHTTP), appending room/user query parameters on
// Connect/Join.
func New(baseURL string) *Backend {
	return &Backend{
		url: baseURL,
		dialer: func(ctx context.Context, u string) (*websocket.Conn, error) {
			conn, _, err := websocket.Dial(ctx, u, nil)
			return conn, err
		},
		events: make(chan conference.Event, 32),
	}
}

func (b *Backend) Connect(ctx context.Context, roomID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomQueued = roomID
	return nil
}

// Join performs the actual WebSocket dial, since the dial URL needs both
// the room (recorded by Connect) and userID. conference.Client always calls
// Connect then Join, so this ordering holds.
func (b *Backend) Join(ctx context.Context, userID string) error {
	b.mu.Lock()
	roomID := b.roomQueued
	b.mu.Unlock()

	u, err := buildURL(b.url, roomID, userID)
	if err != nil {
		return fmt.Errorf("wsbackend: build dial url: %w", err)
	}

	conn, err := b.dialer(ctx, u)
	if err != nil {
		return fmt.Errorf("wsbackend: dial: %w", err)
	}

	connCtx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.conn = conn
	b.userID = userID
	b.cancel = cancel
	b.mu.Unlock()

	go b.readLoop(connCtx, conn)
	return nil
}

// Leave closes the whole WebSocket connection, the same as Close: the Hub
// has no separate leave message, so the transport does not stay up after
// Leave, and a new Join needs a fresh Connect first.
func (b *Backend) Leave(ctx context.Context) error {
	return b.Close()
}

func (b *Backend) AddTrack(ctx context.Context, track conference.Track) error {
	return nil
}

func (b *Backend) RemoveTrack(ctx context.Context, trackID string) error {
	return nil
}

func (b *Backend) SendMessage(ctx context.Context, userID string, payload []byte) error {
	b.mu.Lock()
	conn := b.conn
	from := b.userID
	b.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("wsbackend: not connected")
	}
	return writeJSON(ctx, conn, wireEnvelope{Kind: "frame", To: userID, From: from, Payload: json.RawMessage(payload)})
}

func (b *Backend) Events() <-chan conference.Event {
	return b.events
}

func (b *Backend) Close() error {
	b.mu.Lock()
	conn := b.conn
	cancel := b.cancel
	b.conn = nil
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "leaving")
	}
	return nil
}

func (b *Backend) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(b.events)
	for {
		var env wireEnvelope
		if err := readJSON(ctx, conn, &env); err != nil {
			select {
			case b.events <- conference.Event{Type: conference.EventDisconnected}:
			default:
			}
			return
		}

		switch env.Kind {
		case "joined":
			b.events <- conference.Event{Type: conference.EventUserJoined, UserID: env.UserID}
		case "left":
			b.events <- conference.Event{Type: conference.EventUserLeft, UserID: env.UserID}
		case "frame":
			b.events <- conference.Event{Type: conference.EventMessage, UserID: env.From, Payload: env.Payload}
		}
	}
}

func buildURL(base, roomID, userID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("room", roomID)
	q.Set("user", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ conference.Backend = (*Backend)(nil)
