package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RetagRequest is the JSON body sent to the bulk tag endpoint. Tags is the
// flat [tag1, count1, tag2, count2, ...] sequence.
type RetagRequest struct {
	URLs      []string  `json:"url"`
	Operation *int      `json:"operation"`
	Tags      FlatPairs `json:"tags"`
}

// FlatPairs is a JSON array whose elements may be strings or numbers.
// Numbers are kept in their literal form.
type FlatPairs []string

// UnmarshalJSON implements json.Unmarshaler.
func (p *FlatPairs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be an array: %w", err)
	}
	out := make(FlatPairs, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			if err := json.Unmarshal(item, &out[i]); err != nil {
				return err
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("tags[%d] must be a string or number", i)
		}
		out[i] = n.String()
	}
	*p = out
	return nil
}

// SearchCriteria maps a lower-cased species to its minimum count.
type SearchCriteria map[string]int

// UnmarshalJSON reads a {"crow": 2, "pigeon": "1"} body. Keys are trimmed
// and lower-cased; values that are not positive integers are dropped.
func (c *SearchCriteria) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(SearchCriteria, len(raw))
	for key, value := range raw {
		tag := strings.ToLower(strings.TrimSpace(key))
		if tag == "" {
			continue
		}
		v, err := TagValueFromJSON(value)
		if err != nil {
			continue
		}
		values := Values(v)
		if len(values) != 1 {
			continue
		}
		if n, ok := ParseCount(values[0]); ok && n > 0 {
			out[tag] = n
		}
	}
	*c = out
	return nil
}

// FileQueryRequest is the array form of a tag search. Counts[i] is the
// minimum count for Tags[i] and defaults to 1.
type FileQueryRequest struct {
	Tags   TagList   `json:"tags"`
	Counts CountList `json:"counts"`
}

// ThumbnailRequest asks for the full-size asset behind a thumbnail.
type ThumbnailRequest struct {
	ThumbnailURL       string `json:"thumbnailUrl"`
	LegacyThumbnailURL string `json:"thumbnail_url"`
}

// URL returns whichever field was supplied, trimmed.
func (r ThumbnailRequest) URL() string {
	if u := strings.TrimSpace(r.ThumbnailURL); u != "" {
		return u
	}
	return strings.TrimSpace(r.LegacyThumbnailURL)
}

// DeleteRequest names records by object URL, by id, or both.
type DeleteRequest struct {
	URLs    []string  `json:"urls"`
	FileIDs FlatPairs `json:"fileIds"`
}

// SubscriptionRequest registers an email for a set of species.
type SubscriptionRequest struct {
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

// UploadRequest is the JSON body sent by clients to request a presigned
// upload URL.
type UploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// DetectionEvent is the classifier output handed to the ingest function
// once a stored object has been tagged.
type DetectionEvent struct {
	FileName     string    `json:"fileName"`
	Type         string    `json:"type"`
	OriginalURL  string    `json:"originalUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Tags         TagList   `json:"tags"`
	Counts       CountList `json:"counts"`
}
