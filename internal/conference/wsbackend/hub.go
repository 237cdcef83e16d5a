// Package wsbackend is the reference conference.Backend implementation:
// presence and the app-level data-channel protocol ride a single WebSocket
// per participant, hosted by a Hub that broadcasts within a room. Real
// audio/video media transport (an SFU or peer-to-peer WebRTC mesh) is a
// separate collaborator concern this package does not implement — Hub only
// carries presence events and the {hax,command,value} app protocol
// (spec.md §6.1).
package wsbackend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// wireEnvelope is what actually crosses the WebSocket: either a presence
// notification the Hub generates itself, or an app-level frame relayed
// verbatim between participants.
type wireEnvelope struct {
	Kind    string          `json:"kind"` // "joined", "left", or "frame"
	UserID  string          `json:"userID,omitempty"`
	To      string          `json:"to,omitempty"` // empty = broadcast
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// participant is one connected WebSocket within a room.
type participant struct {
	userID string
	conn   *websocket.Conn
	send   chan wireEnvelope
}

// room holds the live participants sharing a roomID.
type room struct {
	mu           sync.RWMutex
	participants map[string]*participant
}

func newRoom() *room {
	return &room{participants: make(map[string]*participant)}
}

// Hub hosts every room's WebSocket fan-out: joining a room over HTTP
// upgrades to a WebSocket, after which every envelope a participant sends is
// relayed to its destination (or broadcast to the room), and join/leave are
// announced to the rest of the room automatically.
//
// Hub is the server side; [Backend] is the client side participants use to
// talk to it.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// ServeHTTP upgrades the request to a WebSocket and joins the caller into
// the room named by the "room" and "user" query parameters.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	userID := r.URL.Query().Get("user")
	if roomID == "" || userID == "" {
		http.Error(w, "room and user query parameters are required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("wsbackend: websocket accept failed", "error", err)
		return
	}

	rm := h.getOrCreateRoom(roomID)
	p := &participant{userID: userID, conn: conn, send: make(chan wireEnvelope, 32)}
	rm.join(p)
	defer rm.leave(p)

	ctx := r.Context()
	go p.writeLoop(ctx)
	rm.broadcast(wireEnvelope{Kind: "joined", UserID: userID}, userID)
	p.readLoop(ctx, rm)
	rm.broadcast(wireEnvelope{Kind: "left", UserID: userID}, "")
}

func (h *Hub) getOrCreateRoom(roomID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[roomID]
	if !ok {
		rm = newRoom()
		h.rooms[roomID] = rm
	}
	return rm
}

func (rm *room) join(p *participant) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.participants[p.userID] = p
}

func (rm *room) leave(p *participant) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.participants, p.userID)
	close(p.send)
}

// broadcast delivers env to every participant except exclude (pass "" to
// exclude no one).
func (rm *room) broadcast(env wireEnvelope, exclude string) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for id, p := range rm.participants {
		if id == exclude {
			continue
		}
		select {
		case p.send <- env:
		default:
			slog.Warn("wsbackend: participant send buffer full, dropping envelope", "user_id", id)
		}
	}
}

// deliver routes env.Payload to env.To, or broadcasts if env.To is empty.
func (rm *room) deliver(env wireEnvelope) {
	if env.To == "" {
		rm.broadcast(env, env.From)
		return
	}
	rm.mu.RLock()
	p, ok := rm.participants[env.To]
	rm.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case p.send <- env:
	default:
		slog.Warn("wsbackend: participant send buffer full, dropping envelope", "user_id", env.To)
	}
}

func (p *participant) writeLoop(ctx context.Context) {
	for env := range p.send {
		if err := writeJSON(ctx, p.conn, env); err != nil {
			return
		}
	}
}

func (p *participant) readLoop(ctx context.Context, rm *room) {
	for {
		var env wireEnvelope
		if err := readJSON(ctx, p.conn, &env); err != nil {
			return
		}
		env.From = p.userID
		rm.deliver(env)
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func readJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
