package conference

import (
	"context"
	"errors"
	"time"
)

// Handshake timing constants (spec.md §4.6): a newly joined participant
// repeats its userInitRequest every RetryInterval until it either receives
// a matching userInitResponse or Budget elapses.
const (
	HandshakeBudget        = 1000 * time.Millisecond
	HandshakeRetryInterval = 50 * time.Millisecond
)

// ErrHandshakeTimeout is returned when no userInitResponse arrives within
// HandshakeBudget.
var ErrHandshakeTimeout = errors.New("conference: userInit handshake timed out")

// UserInitRequest is the value payload of a "userInitRequest" Frame.
type UserInitRequest struct {
	UserID string `json:"userID"`
}

// UserInitResponse is the value payload of a "userInitResponse" Frame: the
// responder's own pose and display metadata, letting the requester seed its
// view of a participant who was already in the room.
type UserInitResponse struct {
	UserID      string  `json:"userID"`
	DisplayName string  `json:"displayName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

// PerformHandshake drives the mid-session init handshake: it calls send
// immediately, then again every HandshakeRetryInterval, until either
// received fires (a matching userInitResponse was observed) or
// HandshakeBudget elapses without one, or ctx is canceled.
func PerformHandshake(ctx context.Context, send func() error, received <-chan struct{}) error {
	if err := send(); err != nil {
		return err
	}

	deadline := time.NewTimer(HandshakeBudget)
	defer deadline.Stop()
	retry := time.NewTicker(HandshakeRetryInterval)
	defer retry.Stop()

	for {
		select {
		case <-received:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrHandshakeTimeout
		case <-retry.C:
			if err := send(); err != nil {
				return err
			}
		}
	}
}
