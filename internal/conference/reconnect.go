package conference

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default reconnection parameters for the exponential-backoff policy.
const (
	defaultMaxRetries = 10
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
)

// Reconnector, once told of a disconnection through NotifyDisconnect,
// rejoins the same room and user identity with exponential backoff, so a transient
// network blip doesn't require the participant to manually rejoin.
//
// All methods are safe for concurrent use.
type Reconnector struct {
	client      *Client
	roomID      string
	userID      string
	maxRetries  int
	backoff     time.Duration
	maxBackoff  time.Duration
	onReconnect func()

	done         chan struct{}
	stopOnce     sync.Once
	disconnected chan struct{}
}

// ReconnectorConfig configures a Reconnector.
type ReconnectorConfig struct {
	Client      *Client
	RoomID      string
	UserID      string
	MaxRetries  int           // default 10
	Backoff     time.Duration // default 1s
	MaxBackoff  time.Duration // default 30s
	OnReconnect func()        // called after a successful rejoin; may be nil
}

// NewReconnector creates a Reconnector with the given configuration.
func NewReconnector(cfg ReconnectorConfig) *Reconnector {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &Reconnector{
		client:       cfg.Client,
		roomID:       cfg.RoomID,
		userID:       cfg.UserID,
		maxRetries:   maxRetries,
		backoff:      backoff,
		maxBackoff:   maxBackoff,
		onReconnect:  cfg.OnReconnect,
		done:         make(chan struct{}),
		disconnected: make(chan struct{}, 1),
	}
}

// Monitor starts a background goroutine that reacts to NotifyDisconnect
// calls by attempting reconnection.
func (r *Reconnector) Monitor(ctx context.Context) {
	go r.monitorLoop(ctx)
}

// NotifyDisconnect signals that the client's connection was lost. Safe to
// call multiple times; only the first call per reconnection cycle matters.
func (r *Reconnector) NotifyDisconnect() {
	select {
	case r.disconnected <- struct{}{}:
	default:
	}
}

// Stop halts monitoring. Safe to call multiple times.
func (r *Reconnector) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Reconnector) monitorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-r.disconnected:
			r.attemptReconnect(ctx)
		}
	}
}

func (r *Reconnector) attemptReconnect(ctx context.Context) {
	currentBackoff := r.backoff

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		default:
		}

		slog.Info("attempting conference reconnection",
			"room_id", r.roomID, "attempt", attempt, "max_retries", r.maxRetries)

		err := r.client.Connect(ctx, r.roomID)
		if err == nil {
			err = r.client.Join(ctx, r.userID)
		}
		if err == nil {
			slog.Info("conference reconnection successful", "room_id", r.roomID, "attempt", attempt)
			if r.onReconnect != nil {
				r.onReconnect()
			}
			return
		}

		slog.Warn("conference reconnection attempt failed",
			"room_id", r.roomID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-time.After(currentBackoff):
		}

		currentBackoff *= 2
		if currentBackoff > r.maxBackoff {
			currentBackoff = r.maxBackoff
		}
	}

	slog.Error("conference reconnection failed after max retries", "room_id", r.roomID, "max_retries", r.maxRetries)
}
