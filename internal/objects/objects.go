// Package objects removes, probes and presigns objects in the media bucket.
package objects

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// Error is the class of object storage failures.
var Error = errs.Class("objects")

// Store is the object storage the catalog needs.
type Store interface {
	// Delete removes loc. Deleting an absent object succeeds.
	Delete(ctx context.Context, loc s3url.Location) error
	// Exists reports whether loc is stored.
	Exists(ctx context.Context, loc s3url.Location) (bool, error)
	// PresignPut returns a URL that accepts one PUT of contentType to loc
	// until ttl elapses.
	PresignPut(ctx context.Context, loc s3url.Location, contentType string, ttl time.Duration) (string, error)
}
