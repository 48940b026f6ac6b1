package objects

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// Memory is an in-process Store for local runs and tests.
type Memory struct {
	mu      sync.Mutex
	objects map[s3url.Location]struct{}
	failing map[s3url.Location]error
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[s3url.Location]struct{}),
		failing: make(map[s3url.Location]error),
	}
}

// Put records loc as stored.
func (m *Memory) Put(loc s3url.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[loc] = struct{}{}
}

// FailDeletes makes every later Delete of loc return err.
func (m *Memory) FailDeletes(loc s3url.Location, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[loc] = err
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, loc s3url.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[loc]; err != nil {
		return Error.New("delete %s: %w", loc, err)
	}
	delete(m.objects, loc)
	return nil
}

// Exists implements Store.
func (m *Memory) Exists(_ context.Context, loc s3url.Location) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[loc]
	return ok, nil
}

// PresignPut implements Store. The URL is not signed.
func (m *Memory) PresignPut(_ context.Context, loc s3url.Location, contentType string, ttl time.Duration) (string, error) {
	q := url.Values{}
	q.Set("content-type", contentType)
	q.Set("expires", fmt.Sprint(int(ttl.Seconds())))
	return fmt.Sprintf("memory://%s/%s?%s", loc.Bucket, loc.Key, q.Encode()), nil
}
