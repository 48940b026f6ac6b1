// Package sqlitestore implements store.Backend on a local SQLite file for
// running the catalog outside AWS.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS media (
	id               INTEGER NOT NULL,
	file_type        TEXT    NOT NULL,
	file_name        TEXT    NOT NULL DEFAULT '',
	s3_url           TEXT    NOT NULL DEFAULT '',
	s3_thumbnail_url TEXT    NOT NULL DEFAULT '',
	tags             TEXT,
	counts           TEXT,
	timestamp        TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (id, file_type)
);
CREATE TABLE IF NOT EXISTS idempotency (
	id                     INTEGER NOT NULL,
	file_type              TEXT    NOT NULL,
	operation_creation     TEXT    NOT NULL,
	idempotency_expiration INTEGER NOT NULL,
	PRIMARY KEY (id, file_type)
);
CREATE TABLE IF NOT EXISTS subscriptions (
	email TEXT PRIMARY KEY,
	tags  TEXT NOT NULL
);
`

// Store is a store.Backend over SQLite. Scan order is insertion order.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ store.Backend = (*Store)(nil)

// Open creates or opens the database at path.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Error.New("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, store.Error.New("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, store.Error.New("init schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const mediaColumns = `id, file_type, file_name, s3_url, s3_thumbnail_url, tags, counts, timestamp`

// Scan implements store.Records.
func (s *Store) Scan(ctx context.Context) ([]model.MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY rowid`)
	if err != nil {
		return nil, store.Error.New("scan media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.MediaRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if rec.Repair() {
			s.log.Debug("repaired misaligned counts", zap.Stringer("key", rec.Key()))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Error.Wrap(err)
	}
	return records, nil
}

// Get implements store.Records.
func (s *Store) Get(ctx context.Context, key model.RecordKey) (model.MediaRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ? AND file_type = ?`,
		key.ID, string(key.FileType))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MediaRecord{}, store.ErrNotFound
	}
	if err != nil {
		return model.MediaRecord{}, err
	}
	rec.Repair()
	return rec, nil
}

// Put implements store.Records.
func (s *Store) Put(ctx context.Context, rec model.MediaRecord) error {
	tags, err := encodeList(rec.Tags, rec.Tags == nil)
	if err != nil {
		return err
	}
	counts, err := encodeList(rec.Counts, rec.Counts == nil)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media (`+mediaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, file_type) DO UPDATE SET
			file_name = excluded.file_name,
			s3_url = excluded.s3_url,
			s3_thumbnail_url = excluded.s3_thumbnail_url,
			tags = excluded.tags,
			counts = excluded.counts,
			timestamp = excluded.timestamp`,
		rec.ID, string(rec.FileType), rec.FileName, rec.PrimaryURL, rec.ThumbnailURL,
		tags, counts, rec.UploadTimestamp)
	if err != nil {
		return store.Error.New("put %s: %w", rec.Key(), err)
	}
	return nil
}

// UpdateTags implements store.Records.
func (s *Store) UpdateTags(ctx context.Context, key model.RecordKey, tags []string, counts []int) error {
	encodedTags, err := encodeList(orEmpty(tags), false)
	if err != nil {
		return err
	}
	encodedCounts, err := encodeList(orEmpty(counts), false)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE media SET tags = ?, counts = ? WHERE id = ? AND file_type = ?`,
		encodedTags, encodedCounts, key.ID, string(key.FileType))
	if err != nil {
		return store.Error.New("update %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Error.Wrap(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete implements store.Records.
func (s *Store) Delete(ctx context.Context, key model.RecordKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM media WHERE id = ? AND file_type = ?`, key.ID, string(key.FileType))
	if err != nil {
		return store.Error.New("delete %s: %w", key, err)
	}
	return nil
}

// GetMarker implements store.Markers.
func (s *Store) GetMarker(ctx context.Context, key model.RecordKey) (model.IdempotencyMarker, error) {
	marker := model.IdempotencyMarker{ID: key.ID, FileType: key.FileType}
	err := s.db.QueryRowContext(ctx,
		`SELECT operation_creation, idempotency_expiration FROM idempotency WHERE id = ? AND file_type = ?`,
		key.ID, string(key.FileType)).Scan(&marker.CreatedAt, &marker.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.IdempotencyMarker{}, store.ErrNotFound
	}
	if err != nil {
		return model.IdempotencyMarker{}, store.Error.New("get marker %s: %w", key, err)
	}
	return marker, nil
}

// PutMarker implements store.Markers. Expired rows are pruned on write
// since SQLite has no TTL eviction.
func (s *Store) PutMarker(ctx context.Context, marker model.IdempotencyMarker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency (id, file_type, operation_creation, idempotency_expiration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id, file_type) DO UPDATE SET
			operation_creation = excluded.operation_creation,
			idempotency_expiration = excluded.idempotency_expiration`,
		marker.ID, string(marker.FileType), marker.CreatedAt, marker.ExpiresAt)
	if err != nil {
		return store.Error.New("put marker %s: %w", marker.Key(), err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM idempotency WHERE idempotency_expiration < unixepoch()`); err != nil {
		s.log.Warn("pruning expired markers failed", zap.Error(err))
	}
	return nil
}

// PutSubscription implements store.Subscriptions.
func (s *Store) PutSubscription(ctx context.Context, sub model.TagSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (email, tags) VALUES (?, ?)
		ON CONFLICT (email) DO UPDATE SET tags = excluded.tags`,
		sub.Email, sub.Tags)
	if err != nil {
		return store.Error.New("put subscription: %w", err)
	}
	return nil
}

// ScanSubscriptions implements store.Subscriptions.
func (s *Store) ScanSubscriptions(ctx context.Context) ([]model.TagSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, tags FROM subscriptions ORDER BY rowid`)
	if err != nil {
		return nil, store.Error.New("scan subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.TagSubscription
	for rows.Next() {
		var sub model.TagSubscription
		if err := rows.Scan(&sub.Email, &sub.Tags); err != nil {
			return nil, store.Error.Wrap(err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Error.Wrap(err)
	}
	return subs, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (model.MediaRecord, error) {
	var (
		rec          model.MediaRecord
		fileType     string
		tags, counts sql.NullString
	)
	err := scanner.Scan(&rec.ID, &fileType, &rec.FileName, &rec.PrimaryURL,
		&rec.ThumbnailURL, &tags, &counts, &rec.UploadTimestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, store.Error.Wrap(err)
	}
	rec.FileType = model.FileType(fileType)
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &rec.Tags); err != nil {
			return rec, store.Error.New("decode tags of %s: %w", rec.Key(), err)
		}
		if rec.Tags == nil {
			rec.Tags = model.TagList{}
		}
	}
	if counts.Valid {
		if err := json.Unmarshal([]byte(counts.String), &rec.Counts); err != nil {
			return rec, store.Error.New("decode counts of %s: %w", rec.Key(), err)
		}
	}
	return rec, nil
}

// encodeList returns the JSON text of v, or NULL when absent is set.
func encodeList(v any, absent bool) (any, error) {
	if absent {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, store.Error.Wrap(err)
	}
	return string(data), nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
