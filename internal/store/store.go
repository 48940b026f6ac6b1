// Package store defines access to the three BirdTag tables: media records,
// idempotency markers and tag subscriptions.
//
// There is no secondary index on the media table. Every query is a full
// Scan filtered in memory by the caller; the interface keeps that detail in
// one place so an indexed backend can replace it without touching callers.
package store

import (
	"context"
	"errors"

	"github.com/zeebo/errs"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// Error is the class of backend failures.
var Error = errs.Class("store")

// ErrNotFound is returned when a keyed item does not exist.
var ErrNotFound = errors.New("item not found")

// Records accesses the media table keyed by (id, file_type).
type Records interface {
	// Scan returns every record in store order. Count arrays are repaired
	// with MediaRecord.Repair before they are returned.
	Scan(ctx context.Context) ([]model.MediaRecord, error)
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key model.RecordKey) (model.MediaRecord, error)
	Put(ctx context.Context, rec model.MediaRecord) error
	// UpdateTags replaces the tags and counts of an existing record and
	// returns ErrNotFound when it is absent.
	UpdateTags(ctx context.Context, key model.RecordKey, tags []string, counts []int) error
	Delete(ctx context.Context, key model.RecordKey) error
}

// Markers accesses the idempotency side table.
type Markers interface {
	// GetMarker returns ErrNotFound when no marker is stored. Expired
	// markers may still be returned; callers compare ExpiresAt.
	GetMarker(ctx context.Context, key model.RecordKey) (model.IdempotencyMarker, error)
	PutMarker(ctx context.Context, marker model.IdempotencyMarker) error
}

// Subscriptions accesses the subscription table keyed by email.
type Subscriptions interface {
	PutSubscription(ctx context.Context, sub model.TagSubscription) error
	ScanSubscriptions(ctx context.Context) ([]model.TagSubscription, error)
}

// Backend bundles the three tables.
type Backend interface {
	Records
	Markers
	Subscriptions
}
