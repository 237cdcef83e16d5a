package conference

import "testing"

func TestHandlers_Dispatch_UnregisteredType(t *testing.T) {
	h := Handlers{}
	if err := h.Dispatch(Event{Type: EventUserJoined}); err != ErrUnknownEvent {
		t.Errorf("Dispatch with no handlers = %v, want ErrUnknownEvent", err)
	}
}

func TestHandlers_Dispatch_InvokesRegisteredHandler(t *testing.T) {
	var got Event
	h := Handlers{
		EventMessage: func(ev Event) { got = ev },
	}
	want := Event{Type: EventMessage, UserID: "u1", Payload: []byte("hi")}
	if err := h.Dispatch(want); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got.UserID != "u1" || string(got.Payload) != "hi" {
		t.Errorf("handler received %+v, want %+v", got, want)
	}
}
