// Package memstore is an in-process store.Backend used by tests and by the
// local server when no database is configured.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

// Store keeps every table in memory. Records are scanned in insertion
// order.
type Store struct {
	mu      sync.Mutex
	order   []model.RecordKey
	records map[model.RecordKey]model.MediaRecord
	markers map[model.RecordKey]model.IdempotencyMarker
	subs    map[string]model.TagSubscription
	emails  []string
}

var _ store.Backend = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[model.RecordKey]model.MediaRecord),
		markers: make(map[model.RecordKey]model.IdempotencyMarker),
		subs:    make(map[string]model.TagSubscription),
	}
}

// Scan implements store.Records.
func (s *Store) Scan(ctx context.Context) ([]model.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.MediaRecord, 0, len(s.order))
	for _, key := range s.order {
		rec := clone(s.records[key])
		rec.Repair()
		out = append(out, rec)
	}
	return out, nil
}

// Get implements store.Records.
func (s *Store) Get(ctx context.Context, key model.RecordKey) (model.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return model.MediaRecord{}, store.ErrNotFound
	}
	rec = clone(rec)
	rec.Repair()
	return rec, nil
}

// Put implements store.Records.
func (s *Store) Put(ctx context.Context, rec model.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = clone(rec)
	return nil
}

// UpdateTags implements store.Records.
func (s *Store) UpdateTags(ctx context.Context, key model.RecordKey, tags []string, counts []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return store.ErrNotFound
	}
	rec.Tags = append(model.TagList{}, tags...)
	rec.Counts = append(model.CountList{}, counts...)
	s.records[key] = rec
	return nil
}

// Delete implements store.Records. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key model.RecordKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	s.order = slices.DeleteFunc(s.order, func(k model.RecordKey) bool { return k == key })
	return nil
}

// GetMarker implements store.Markers.
func (s *Store) GetMarker(ctx context.Context, key model.RecordKey) (model.IdempotencyMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marker, ok := s.markers[key]
	if !ok {
		return model.IdempotencyMarker{}, store.ErrNotFound
	}
	return marker, nil
}

// PutMarker implements store.Markers.
func (s *Store) PutMarker(ctx context.Context, marker model.IdempotencyMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers[marker.Key()] = marker
	return nil
}

// PutSubscription implements store.Subscriptions.
func (s *Store) PutSubscription(ctx context.Context, sub model.TagSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.Email]; !ok {
		s.emails = append(s.emails, sub.Email)
	}
	s.subs[sub.Email] = sub
	return nil
}

// ScanSubscriptions implements store.Subscriptions.
func (s *Store) ScanSubscriptions(ctx context.Context) ([]model.TagSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TagSubscription, 0, len(s.emails))
	for _, email := range s.emails {
		out = append(out, s.subs[email])
	}
	return out, nil
}

func clone(rec model.MediaRecord) model.MediaRecord {
	if rec.Tags != nil {
		rec.Tags = slices.Clone(rec.Tags)
	}
	if rec.Counts != nil {
		rec.Counts = slices.Clone(rec.Counts)
	}
	return rec
}
