package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/roomspatial/roomspatial/internal/config"
	"github.com/roomspatial/roomspatial/internal/conference"
	"github.com/roomspatial/roomspatial/internal/game"
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/audio/spatializer/direct"
)

// fakeBackend is a minimal conference.Backend double, grounded on
// internal/conference's own client_test.go fakeBackend.
type fakeBackend struct {
	mu     sync.Mutex
	events chan conference.Event
	sent   []sentMessage

	connectCalls, joinCalls, leaveCalls, closeCalls int
}

type sentMessage struct {
	userID  string
	payload []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan conference.Event, 8)}
}

func (f *fakeBackend) Connect(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return nil
}

func (f *fakeBackend) Join(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++
	return nil
}

func (f *fakeBackend) Leave(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls++
	return nil
}

func (f *fakeBackend) AddTrack(context.Context, conference.Track) error       { return nil }
func (f *fakeBackend) RemoveTrack(context.Context, string) error              { return nil }
func (f *fakeBackend) SendMessage(_ context.Context, userID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{userID: userID, payload: payload})
	return nil
}
func (f *fakeBackend) Events() <-chan conference.Event { return f.events }
func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

// testRegistry returns a Registry with one backend ("fake", yielding backend)
// and the Direct spatializer registered under "direct".
func testRegistry(backend conference.Backend) *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterBackend("fake", func(config.ConferenceConfig) (conference.Backend, error) {
		return backend, nil
	})
	reg.RegisterSpatializer("direct", direct.Variant())
	return reg
}

func testRoomConfig() (config.RoomConfig, config.ConferenceConfig, config.AudioConfig) {
	return config.RoomConfig{Name: "lobby", TileMap: "unused"},
		config.ConferenceConfig{Backend: "fake"},
		config.AudioConfig{
			MinDistance:      1,
			MaxDistance:      10,
			Rolloff:          1,
			TransitionTimeMS: 125,
			SpatializerOrder: []string{"direct"},
		}
}

func TestNewRoom_ConnectsAndJoins(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}

	if err := room.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if backend.connectCalls != 1 {
		t.Errorf("connectCalls = %d, want 1", backend.connectCalls)
	}
	if backend.joinCalls != 1 {
		t.Errorf("joinCalls = %d, want 1", backend.joinCalls)
	}
}

func TestRoom_UserJoinedThenLeftTracksRemotes(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}

	room.onUserJoined(conference.Event{Type: conference.EventUserJoined, UserID: "alice"})

	room.mu.RLock()
	_, ok := room.remotes["alice"]
	room.mu.RUnlock()
	if !ok {
		t.Fatal("expected remote avatar for alice after join")
	}

	room.onUserLeft(conference.Event{Type: conference.EventUserLeft, UserID: "alice"})

	room.mu.RLock()
	_, ok = room.remotes["alice"]
	room.mu.RUnlock()
	if ok {
		t.Fatal("expected remote avatar for alice to be removed after leave")
	}
}

func TestRoom_OnMessageAppliesPoseToRemoteAvatar(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}

	room.onUserJoined(conference.Event{Type: conference.EventUserJoined, UserID: "bob"})

	frame, err := conference.EncodeFrame("pose", map[string]float64{
		"px": 3, "py": 0, "pz": 4,
		"fx": 0, "fy": 0, "fz": 1,
		"ux": 0, "uy": 1, "uz": 0,
	})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	room.onMessage(conference.Event{Type: conference.EventMessage, UserID: "bob", Payload: frame})

	room.mu.RLock()
	avatar := room.remotes["bob"]
	room.mu.RUnlock()

	_, end := avatar.Pose.StartEnd()
	if end.P.X != 3 || end.P.Z != 4 {
		t.Errorf("remote pose target = %+v, want X=3 Z=4", end.P)
	}
}

func TestRoom_OnMessageIgnoresUnknownUser(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}

	frame, _ := conference.EncodeFrame("pose", map[string]float64{"px": 1})
	// Must not panic even though "ghost" never joined.
	room.onMessage(conference.Event{Type: conference.EventMessage, UserID: "ghost", Payload: frame})
}

func TestRoom_RunTicksUntilCanceled(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- room.Run(ctx, time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRoom_SetAudioPropertiesDoesNotPanic(t *testing.T) {
	backend := newFakeBackend()
	rc, cc, ac := testRoomConfig()
	tm := game.NewTilemap(4, 4)

	room, err := NewRoom(rc, cc, ac, tm, testRegistry(backend), nil)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	room.SetAudioProperties(audio.Properties{MinDistance: 2, MaxDistance: 20, RolloffFactor: 2})
}
