// Package idempotency keeps a bulk retag from applying the same change to a
// record twice within a short window.
//
// The guard is best effort. A marker is written only after the record
// update succeeds, so a failed marker write leaves the update in place and
// a retry inside the window may apply it again.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/zeebo/errs"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

// Error is the class of guard failures.
var Error = errs.Class("idempotency")

// Result is the outcome of TryAcquire.
type Result int

const (
	// Acquired means the caller may reconcile the record and must Commit
	// after the write succeeds.
	Acquired Result = iota
	// AlreadyApplied means a live marker exists; the caller skips the key.
	AlreadyApplied
)

func (r Result) String() string {
	if r == AlreadyApplied {
		return "already-applied"
	}
	return "acquired"
}

// Guard checks and writes markers in a store.Markers table.
type Guard struct {
	markers store.Markers
	window  time.Duration
	now     func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// New returns a Guard whose markers live for window. A non-positive window
// uses model.IdempotencyWindowSeconds.
func New(markers store.Markers, window time.Duration, opts ...Option) *Guard {
	if window <= 0 {
		window = model.IdempotencyWindowSeconds * time.Second
	}
	g := &Guard{markers: markers, window: window, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Window returns the marker lifetime.
func (g *Guard) Window() time.Duration { return g.window }

// TryAcquire reports whether key may be reconciled. Markers past their
// expiry count as absent even if the store has not evicted them yet.
func (g *Guard) TryAcquire(ctx context.Context, key model.RecordKey) (Result, error) {
	marker, err := g.markers.GetMarker(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return Acquired, nil
	}
	if err != nil {
		return Acquired, Error.Wrap(err)
	}
	if marker.LiveAt(g.now().Unix()) {
		return AlreadyApplied, nil
	}
	return Acquired, nil
}

// Commit writes the marker for key. Call it only after the reconciled
// record has been stored.
func (g *Guard) Commit(ctx context.Context, key model.RecordKey) error {
	now := g.now().UTC()
	err := g.markers.PutMarker(ctx, model.IdempotencyMarker{
		ID:        key.ID,
		FileType:  key.FileType,
		CreatedAt: now.Format(time.RFC3339),
		ExpiresAt: now.Add(g.window).Unix(),
	})
	if err != nil {
		return Error.Wrap(err)
	}
	return nil
}
