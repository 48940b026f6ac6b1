// Package query filters the full record set in memory. There is no
// secondary index: every lookup is a projection over a store scan, and
// results keep scan order.
package query

import (
	"slices"
	"strings"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// Searchable reports whether rec takes part in tag searches: it must have a
// tags attribute and a known file type.
func Searchable(rec model.MediaRecord) bool {
	return rec.HasTags() && rec.FileType.Valid()
}

// Search returns the records holding at least one criteria tag at a
// position whose count is at least the tag's minimum. Tags compare
// case-insensitively.
func Search(records []model.MediaRecord, criteria model.SearchCriteria) []model.MediaRecord {
	want := make(map[string]int, len(criteria))
	for tag, threshold := range criteria {
		want[normalizeTag(tag)] = threshold
	}

	var out []model.MediaRecord
	for _, rec := range records {
		if Searchable(rec) && matches(rec, want) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec model.MediaRecord, want map[string]int) bool {
	for i, tag := range rec.Tags {
		threshold, ok := want[normalizeTag(tag)]
		if ok && i < len(rec.Counts) && rec.Counts[i] >= threshold {
			return true
		}
	}
	return false
}

// CriteriaFromArrays zips the array form of a search into criteria.
// Missing or non-positive counts become 1. A tag listed twice keeps its
// lower minimum, since either entry alone would qualify a record.
func CriteriaFromArrays(tags []string, counts []int) model.SearchCriteria {
	criteria := make(model.SearchCriteria, len(tags))
	for i, tag := range tags {
		tag = normalizeTag(tag)
		if tag == "" {
			continue
		}
		threshold := 1
		if i < len(counts) && counts[i] > 0 {
			threshold = counts[i]
		}
		if prev, ok := criteria[tag]; ok && prev < threshold {
			continue
		}
		criteria[tag] = threshold
	}
	return criteria
}

// FindByIdentity returns the records whose id is in ids or whose primary
// or thumbnail URL matches any of urls.
func FindByIdentity(n *s3url.Normalizer, records []model.MediaRecord, urls []string, ids []int64) []model.MediaRecord {
	var out []model.MediaRecord
	for _, rec := range records {
		if slices.Contains(ids, rec.ID) || matchesAnyURL(n, rec, urls) {
			out = append(out, rec)
		}
	}
	return out
}

// FindFirst returns the first record in scan order owning url.
func FindFirst(n *s3url.Normalizer, records []model.MediaRecord, url string) (model.MediaRecord, bool) {
	for _, rec := range records {
		if matchesAnyURL(n, rec, []string{url}) {
			return rec, true
		}
	}
	return model.MediaRecord{}, false
}

// FindThumbnail resolves a thumbnail reference to its record. Thumbnail
// URLs are tried across the whole set before primary URLs so a thumbnail
// never resolves to an unrelated record's full asset.
func FindThumbnail(n *s3url.Normalizer, records []model.MediaRecord, url string) (model.MediaRecord, bool) {
	for _, rec := range records {
		if n.Match(rec.ThumbnailURL, url) {
			return rec, true
		}
	}
	return FindFirst(n, records, url)
}

func matchesAnyURL(n *s3url.Normalizer, rec model.MediaRecord, urls []string) bool {
	for _, own := range rec.URLs() {
		for _, u := range urls {
			if n.Match(own, u) {
				return true
			}
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
