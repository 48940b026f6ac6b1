package model

import (
	"fmt"
	"strings"
)

// FileType is the sort key of the media table.
type FileType string

// Media kinds accepted by the catalog.
const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypeAudio FileType = "audio"
)

// FileTypes lists every valid FileType in display order.
var FileTypes = []FileType{FileTypeImage, FileTypeVideo, FileTypeAudio}

// Valid reports whether t is one of image, video or audio.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeImage, FileTypeVideo, FileTypeAudio:
		return true
	}
	return false
}

// ParseFileType lower-cases and trims s before validating it.
func ParseFileType(s string) (FileType, bool) {
	t := FileType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// RecordKey is the composite primary key shared by media records and
// idempotency markers.
type RecordKey struct {
	ID       int64    `dynamodbav:"id" json:"fileId"`
	FileType FileType `dynamodbav:"file_type" json:"fileType"`
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%d-%s", k.ID, k.FileType)
}

// MediaRecord represents a single item in the birds_table DynamoDB table.
//
// Tags is nil when the stored item has no tags attribute at all, and an
// empty non-nil list when the attribute exists but holds no species.
type MediaRecord struct {
	ID              int64     `dynamodbav:"id"`
	FileType        FileType  `dynamodbav:"file_type"`
	FileName        string    `dynamodbav:"file_name"`
	PrimaryURL      string    `dynamodbav:"s3_url"`
	ThumbnailURL    string    `dynamodbav:"s3_thumbnail_url,omitempty"`
	Tags            TagList   `dynamodbav:"tags"`
	Counts          CountList `dynamodbav:"counts"`
	UploadTimestamp string    `dynamodbav:"timestamp"`
}

// Key returns the record's primary key.
func (r MediaRecord) Key() RecordKey {
	return RecordKey{ID: r.ID, FileType: r.FileType}
}

// HasTags reports whether the tags attribute is present.
func (r MediaRecord) HasTags() bool {
	return r.Tags != nil
}

// URLs returns the non-empty object references of the record, primary first.
func (r MediaRecord) URLs() []string {
	urls := make([]string, 0, 2)
	if r.PrimaryURL != "" {
		urls = append(urls, r.PrimaryURL)
	}
	if r.ThumbnailURL != "" {
		urls = append(urls, r.ThumbnailURL)
	}
	return urls
}

// Repair restores len(Counts) == len(Tags) for legacy items. Counts shorter
// than Tags are replaced by a count of 1 at every position; extra counts are
// dropped. It reports whether anything changed.
func (r *MediaRecord) Repair() bool {
	switch {
	case len(r.Counts) < len(r.Tags):
		counts := make(CountList, len(r.Tags))
		for i := range counts {
			counts[i] = 1
		}
		r.Counts = counts
		return true
	case len(r.Counts) > len(r.Tags):
		r.Counts = r.Counts[:len(r.Tags):len(r.Tags)]
		return true
	}
	return false
}

// SpeciesCounts zips tags and counts into a lower-cased species map.
func (r MediaRecord) SpeciesCounts() map[string]int {
	out := make(map[string]int, len(r.Tags))
	for i, tag := range r.Tags {
		if tag == "" || i >= len(r.Counts) {
			continue
		}
		out[strings.ToLower(tag)] = r.Counts[i]
	}
	return out
}

// IdempotencyMarker represents a single item in the idempotency_data table.
// ExpiresAt is the table's TTL attribute, in epoch seconds.
type IdempotencyMarker struct {
	ID        int64    `dynamodbav:"id"`
	FileType  FileType `dynamodbav:"file_type"`
	CreatedAt string   `dynamodbav:"operation_creation"`
	ExpiresAt int64    `dynamodbav:"idempotency_expiration"`
}

// Key returns the key of the record the marker guards.
func (m IdempotencyMarker) Key() RecordKey {
	return RecordKey{ID: m.ID, FileType: m.FileType}
}

// LiveAt reports whether the marker still blocks reconciliation at unix
// time now. DynamoDB evicts expired items lazily, so readers must check.
func (m IdempotencyMarker) LiveAt(now int64) bool {
	return now < m.ExpiresAt
}

// TagDelimiter separates species in TagSubscription.Tags.
const TagDelimiter = ","

// TagSubscription represents a single item in the tag_subscriptions table.
type TagSubscription struct {
	Email string `dynamodbav:"email"`
	Tags  string `dynamodbav:"tags"`
}

// NewTagSubscription lower-cases, trims and de-duplicates tags and joins
// them with TagDelimiter.
func NewTagSubscription(email string, tags []string) TagSubscription {
	seen := make(map[string]struct{}, len(tags))
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		kept = append(kept, tag)
	}
	return TagSubscription{
		Email: strings.TrimSpace(email),
		Tags:  strings.Join(kept, TagDelimiter),
	}
}

// TagSet parses the delimited tag string back into a set.
func (s TagSubscription) TagSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, tag := range strings.Split(s.Tags, TagDelimiter) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// Matches reports whether any of tags is in the subscription.
func (s TagSubscription) Matches(tags []string) bool {
	set := s.TagSet()
	for _, tag := range tags {
		if _, ok := set[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return true
		}
	}
	return false
}
