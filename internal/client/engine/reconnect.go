package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	maxReconnectDelay     = 60 * time.Second
	backoffFactor         = 2.0
	jitterFactor          = 0.3
)

// Connector is the part of Engine the Reconnector drives.
type Connector interface {
	Connect(ctx context.Context, token string) error
	Subscribe(fn func(StatusChange))
}

// Reconnector calls Connect again, with exponential backoff and jitter,
// whenever the connection drops without an explicit Disconnect. An invalid
// token stops the retries until the next drop.
type Reconnector struct {
	conn    Connector
	initial time.Duration
	max     time.Duration
	log     logging.Logger
	trigger chan struct{}
	sleep   func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	token    string
	explicit atomic.Bool
}

func NewReconnector(conn Connector, token string, initial time.Duration, log logging.Logger) *Reconnector {
	if initial <= 0 {
		initial = DefaultReconnectDelay
	}
	r := &Reconnector{
		conn:    conn,
		token:   token,
		initial: initial,
		max:     maxReconnectDelay,
		log:     log.With(logging.KeyComponent, "reconnector"),
		trigger: make(chan struct{}, 1),
		sleep:   sleepCtx,
	}
	conn.Subscribe(r.observe)
	return r
}

// SetToken replaces the token used by later attempts.
func (r *Reconnector) SetToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
}

func (r *Reconnector) currentToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

func (r *Reconnector) observe(c StatusChange) {
	if c.State != Disconnected {
		return
	}
	r.explicit.Store(c.Explicit)
	if c.Explicit {
		return
	}
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run retries until ctx is done.
func (r *Reconnector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			r.retry(ctx)
		}
	}
}

func (r *Reconnector) retry(ctx context.Context) {
	// failed attempts report Disconnected and queue a trigger of their own
	defer func() {
		select {
		case <-r.trigger:
		default:
		}
	}()

	backoff := r.initial

	for attempt := 1; ; attempt++ {
		delay := jittered(backoff)
		r.log.Info(ctx, "reconnecting", "attempt", attempt, "delay", delay)
		if err := r.sleep(ctx, delay); err != nil {
			return
		}
		if r.explicit.Load() {
			return
		}

		err := r.conn.Connect(ctx, r.currentToken())
		if err == nil {
			return
		}
		if errors.Is(err, common.ErrInvalidToken) {
			r.log.Error(ctx, "relay rejected the token, giving up", logging.KeyError, err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		backoff = time.Duration(float64(backoff) * backoffFactor)
		if backoff > r.max {
			backoff = r.max
		}
	}
}

func jittered(d time.Duration) time.Duration {
	jitter := time.Duration(float64(d) * jitterFactor * (rand.Float64()*2 - 1))
	if d+jitter <= 0 {
		return d
	}
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
