package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/query"
)

// Search returns the records satisfying any tag/minimum pair of criteria.
// No match is an empty result, not an error.
func (s *Service) Search(ctx context.Context, criteria model.SearchCriteria) (model.SearchResponse, error) {
	if len(criteria) == 0 {
		return model.SearchResponse{}, ErrInvalidInput.New("provide at least one tag with a positive count, e.g. {\"crow\": 1}")
	}
	resp, err := s.search(ctx, criteria)
	if err != nil {
		return resp, err
	}
	resp.SearchCriteria = criteria
	return resp, nil
}

// FileQuery is Search for the array form: counts[i] is the minimum for
// tags[i] and defaults to 1.
func (s *Service) FileQuery(ctx context.Context, req model.FileQueryRequest) (model.SearchResponse, error) {
	criteria := query.CriteriaFromArrays(req.Tags, req.Counts)
	if len(criteria) == 0 {
		return model.SearchResponse{}, ErrInvalidInput.New("tags must be a non-empty array")
	}
	resp, err := s.search(ctx, criteria)
	if err != nil {
		return resp, err
	}
	for _, tag := range req.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if threshold, ok := criteria[tag]; ok {
			resp.SearchTags = append(resp.SearchTags, tag)
			resp.SearchCounts = append(resp.SearchCounts, threshold)
			delete(criteria, tag)
		}
	}
	return resp, nil
}

func (s *Service) search(ctx context.Context, criteria model.SearchCriteria) (model.SearchResponse, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return model.SearchResponse{}, err
	}
	matches := query.Search(records, criteria)
	s.log.Debug("search finished",
		zap.Any("criteria", criteria),
		zap.Int("scanned", len(records)),
		zap.Int("matched", len(matches)))
	return query.Respond(s.urls, len(records), matches), nil
}

// LookupThumbnail resolves a thumbnail URL to the full-size asset of its
// record. A miss is ErrNotFound wrapping a *ThumbnailMiss.
func (s *Service) LookupThumbnail(ctx context.Context, url string) (model.ThumbnailResponse, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.ThumbnailResponse{}, ErrInvalidInput.New("thumbnailUrl is required")
	}
	records, err := s.scan(ctx)
	if err != nil {
		return model.ThumbnailResponse{}, err
	}
	rec, ok := query.FindThumbnail(s.urls, records, url)
	if !ok {
		return model.ThumbnailResponse{}, ErrNotFound.Wrap(&ThumbnailMiss{
			SearchedURL:   url,
			NormalizedURL: s.urls.Normalize(url),
		})
	}

	thumb := rec.ThumbnailURL
	if thumb == "" {
		thumb = url
	}
	return model.ThumbnailResponse{
		Success:      true,
		FullSizeURL:  s.urls.HTTPS(rec.PrimaryURL),
		ThumbnailURL: s.urls.HTTPS(thumb),
		FileInfo: model.FileInfo{
			FileName:      rec.FileName,
			FileID:        rec.ID,
			UploadDate:    rec.UploadTimestamp,
			DetectedBirds: rec.SpeciesCounts(),
		},
		Message: "Full-size image URL found",
	}, nil
}
