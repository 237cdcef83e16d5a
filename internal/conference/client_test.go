package conference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu         sync.Mutex
	events     chan Event
	connectErr error
	joinErr    error
	closed     bool
	sent       []sentMessage

	connectCalls, joinCalls, leaveCalls, closeCalls int
}

type sentMessage struct {
	userID  string
	payload []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan Event, 8)}
}

func (f *fakeBackend) Connect(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return f.connectErr
}

func (f *fakeBackend) Join(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++
	return f.joinErr
}

func (f *fakeBackend) Leave(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls++
	return nil
}

func (f *fakeBackend) AddTrack(ctx context.Context, track Track) error       { return nil }
func (f *fakeBackend) RemoveTrack(ctx context.Context, trackID string) error { return nil }
func (f *fakeBackend) SendMessage(ctx context.Context, userID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{userID: userID, payload: payload})
	return nil
}

func (f *fakeBackend) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
func (f *fakeBackend) Events() <-chan Event { return f.events }
func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	f.closed = true
	return nil
}

func TestClient_LifecycleHappyPath(t *testing.T) {
	backend := newFakeBackend()
	c := NewClient(backend, nil)

	if c.State() != StateIdle {
		t.Fatalf("initial state = %v, want Idle", c.State())
	}
	if err := c.Connect(context.Background(), "room-1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.State() != StateConnected {
		t.Fatalf("state after Connect = %v, want Connected", c.State())
	}
	if err := c.Join(context.Background(), "alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if c.State() != StateInConference {
		t.Fatalf("state after Join = %v, want InConference", c.State())
	}
	if err := c.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if c.State() != StateConnected {
		t.Fatalf("state after Leave = %v, want Connected", c.State())
	}
	if err := c.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("state after Disconnect = %v, want Idle", c.State())
	}
	if !backend.closed {
		t.Errorf("backend was never closed")
	}
}

func TestClient_JoinBeforeConnect_Rejected(t *testing.T) {
	backend := newFakeBackend()
	c := NewClient(backend, nil)
	if err := c.Join(context.Background(), "alice"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Join from Idle = %v, want ErrInvalidTransition", err)
	}
}

func TestClient_Connect_BackendFailureResetsToIdle(t *testing.T) {
	backend := newFakeBackend()
	backend.connectErr = errors.New("network down")
	c := NewClient(backend, nil)

	if err := c.Connect(context.Background(), "room-1"); err == nil {
		t.Fatalf("Connect succeeded, want error")
	}
	if c.State() != StateIdle {
		t.Errorf("state after failed Connect = %v, want Idle", c.State())
	}
}

func TestClient_DispatchesBackendEvents(t *testing.T) {
	backend := newFakeBackend()
	var mu sync.Mutex
	var seen []string
	handlers := Handlers{
		EventUserJoined: func(ev Event) {
			mu.Lock()
			seen = append(seen, ev.UserID)
			mu.Unlock()
		},
	}
	c := NewClient(backend, handlers)
	if err := c.Connect(context.Background(), "room-1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	backend.events <- Event{Type: EventUserJoined, UserID: "bob"}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "bob" {
		t.Errorf("seen = %v, want [bob]", seen)
	}
}

func TestClient_SetAudioMutedAsync_IsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	var mu sync.Mutex
	var localEvents int
	handlers := Handlers{
		EventLocalAudioMuteChanged: func(ev Event) {
			mu.Lock()
			localEvents++
			mu.Unlock()
		},
	}
	c := NewClient(backend, handlers)
	if err := c.Connect(context.Background(), "room-1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Join(context.Background(), "alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := c.SetAudioMutedAsync(context.Background(), true); err != nil {
		t.Fatalf("SetAudioMutedAsync(true): %v", err)
	}
	if err := c.SetAudioMutedAsync(context.Background(), true); err != nil {
		t.Fatalf("SetAudioMutedAsync(true) again: %v", err)
	}

	if got := backend.sentCount(); got != 1 {
		t.Errorf("SendMessage calls = %d, want 1 (repeat call should be a no-op)", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if localEvents != 1 {
		t.Errorf("EventLocalAudioMuteChanged fired %d times, want 1", localEvents)
	}
}

func TestClient_ToggleAudioMuted_FlipsState(t *testing.T) {
	backend := newFakeBackend()
	c := NewClient(backend, nil)
	if err := c.Connect(context.Background(), "room-1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	first, err := c.ToggleAudioMuted(context.Background())
	if err != nil {
		t.Fatalf("ToggleAudioMuted: %v", err)
	}
	if !first {
		t.Fatalf("first toggle = %v, want true", first)
	}

	second, err := c.ToggleAudioMuted(context.Background())
	if err != nil {
		t.Fatalf("ToggleAudioMuted: %v", err)
	}
	if second {
		t.Fatalf("second toggle = %v, want false", second)
	}

	if got := backend.sentCount(); got != 2 {
		t.Errorf("SendMessage calls = %d, want 2", got)
	}
}

func TestClient_DispatchesNormalizedMuteFrame(t *testing.T) {
	backend := newFakeBackend()
	var mu sync.Mutex
	var seen []Event
	handlers := Handlers{
		EventAudioMuteChanged: func(ev Event) {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
		},
		EventMessage: func(ev Event) {
			t.Errorf("EventMessage handler fired for a recognized mute frame, want it routed to EventAudioMuteChanged")
		},
	}
	c := NewClient(backend, handlers)
	if err := c.Connect(context.Background(), "room-1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	payload, err := EncodeFrame("audioMuteStatusChanged", muteStatus{UserID: "bob", Muted: true})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	backend.events <- Event{Type: EventMessage, Payload: payload}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("EventAudioMuteChanged fired %d times, want 1", len(seen))
	}
	if seen[0].UserID != "bob" || !seen[0].Muted {
		t.Errorf("event = %+v, want UserID=bob Muted=true", seen[0])
	}
}
