// Package catalog implements the request-level flows of the bird media
// catalog: bulk retagging, searches, thumbnail resolution, deletion,
// subscriptions, upload issuance and detection ingest.
//
// Every flow starts from a full scan of the media table; matching happens
// in memory through package query.
package catalog

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/idempotency"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/objects"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

var (
	// ErrInvalidInput is malformed or incomplete input.
	ErrInvalidInput = errs.Class("invalid input")
	// ErrNotFound is a single-target lookup that matched nothing.
	ErrNotFound = errs.Class("not found")
	// ErrConflict is an upload whose object already exists.
	ErrConflict = errs.Class("conflict")
	// Error is an internal failure of a collaborator.
	Error = errs.Class("catalog")
)

// Deps are the collaborators of a Service. Objects and Publisher may be
// nil for processes that never delete, upload or announce.
type Deps struct {
	Records       store.Records
	Subscriptions store.Subscriptions
	Guard         *idempotency.Guard
	Objects       objects.Store
	Publisher     notify.Publisher
	URLs          *s3url.Normalizer
	Log           *zap.Logger

	// Bucket receives uploads.
	Bucket string
	// PresignTTL bounds presigned upload URLs. Zero uses
	// model.PresignedURLTTLSeconds.
	PresignTTL time.Duration
}

// Service runs catalog flows against its Deps.
type Service struct {
	records    store.Records
	subs       store.Subscriptions
	guard      *idempotency.Guard
	objects    objects.Store
	publisher  notify.Publisher
	urls       *s3url.Normalizer
	log        *zap.Logger
	bucket     string
	presignTTL time.Duration
	now        func() time.Time
	newID      func() int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDSource replaces the random record id generator.
func WithIDSource(next func() int64) Option {
	return func(s *Service) { s.newID = next }
}

// New returns a Service.
func New(deps Deps, opts ...Option) *Service {
	ttl := deps.PresignTTL
	if ttl <= 0 {
		ttl = model.PresignedURLTTLSeconds * time.Second
	}
	urls := deps.URLs
	if urls == nil {
		urls = s3url.New("")
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		records:    deps.Records,
		subs:       deps.Subscriptions,
		guard:      deps.Guard,
		objects:    deps.Objects,
		publisher:  deps.Publisher,
		urls:       urls,
		log:        log,
		bucket:     deps.Bucket,
		presignTTL: ttl,
		now:        time.Now,
		newID:      func() int64 { return rand.Int64N(model.MaxRecordID) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URLs returns the normalizer used for matching.
func (s *Service) URLs() *s3url.Normalizer { return s.urls }

func (s *Service) scan(ctx context.Context) ([]model.MediaRecord, error) {
	records, err := s.records.Scan(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return records, nil
}
