package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/idempotency"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/query"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/tagging"
)

// Retag applies one add or remove operation to every record named in
// req.URLs. URLs are processed in order; each resolves to the first record
// in scan order owning it. A record with a live idempotency marker is
// skipped. A store failure aborts the remaining URLs with an Error; records
// already updated stay updated.
func (s *Service) Retag(ctx context.Context, req model.RetagRequest) (model.RetagResponse, error) {
	if len(req.URLs) == 0 {
		return model.RetagResponse{}, ErrInvalidInput.New("url must be a non-empty array")
	}
	if req.Operation == nil {
		return model.RetagResponse{}, ErrInvalidInput.New("operation is required")
	}
	op, err := tagging.ParseOperation(*req.Operation)
	if err != nil {
		return model.RetagResponse{}, ErrInvalidInput.Wrap(err)
	}
	pairs, err := tagging.ParsePairs(op, tagging.NormalizeFlat(req.Tags))
	if err != nil {
		return model.RetagResponse{}, ErrInvalidInput.Wrap(err)
	}
	if s.guard == nil {
		return model.RetagResponse{}, Error.New("idempotency guard is not configured")
	}

	records, err := s.scan(ctx)
	if err != nil {
		return model.RetagResponse{}, err
	}

	resp := model.RetagResponse{
		Updated:  []model.RetagEntry{},
		Skipped:  []model.RetagEntry{},
		NotFound: []string{},
	}
	for _, raw := range req.URLs {
		url := strings.TrimSpace(raw)
		rec, ok := query.FindFirst(s.urls, records, url)
		if !ok {
			s.log.Debug("retag target not found", zap.String("url", url))
			resp.NotFound = append(resp.NotFound, raw)
			continue
		}
		entry := model.RetagEntry{URL: raw, FileID: rec.ID, FileType: rec.FileType}

		result, err := s.guard.TryAcquire(ctx, rec.Key())
		if err != nil {
			return resp, Error.Wrap(err)
		}
		if result == idempotency.AlreadyApplied {
			s.log.Info("skipping duplicate retag", zap.Stringer("key", rec.Key()))
			resp.Skipped = append(resp.Skipped, entry)
			continue
		}

		tags, counts := tagging.Apply(rec.Tags, rec.Counts, op, pairs)
		err = s.records.UpdateTags(ctx, rec.Key(), tags, counts)
		if errors.Is(err, store.ErrNotFound) {
			resp.NotFound = append(resp.NotFound, raw)
			continue
		}
		if err != nil {
			return resp, Error.Wrap(err)
		}
		if err := s.guard.Commit(ctx, rec.Key()); err != nil {
			s.log.Warn("writing idempotency marker failed; a retry may reapply",
				zap.Stringer("key", rec.Key()), zap.Error(err))
		}

		entry.Tags, entry.Counts = tags, counts
		resp.Updated = append(resp.Updated, entry)
		s.log.Info("retagged record",
			zap.Stringer("key", rec.Key()),
			zap.Stringer("operation", op),
			zap.Strings("tags", tags),
			zap.Ints("counts", counts))
	}

	resp.Message = fmt.Sprintf("Tags and counts updated for %d of %d files", len(resp.Updated), len(req.URLs))
	return resp, nil
}
