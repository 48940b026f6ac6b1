package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/query"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// Places reported in DeletedFile.DeletedFrom.
const (
	DeletedMainObject      = "s3-main"
	DeletedThumbnailObject = "s3-thumbnail"
	DeletedRecord          = "dynamodb"
)

// maxParallelDeletes bounds the fan-out of one bulk delete.
const maxParallelDeletes = 8

// Delete removes every record matching req by id or URL, together with its
// objects. Each record is handled independently: object removal failures
// become warnings, and only a failed metadata delete lands the record in
// Failed. A request matching nothing is ErrNotFound wrapping *DeleteMiss.
func (s *Service) Delete(ctx context.Context, req model.DeleteRequest) (model.DeleteResponse, error) {
	urls := trimAll(req.URLs)
	rawIDs := trimAll(req.FileIDs)
	if len(urls) == 0 && len(rawIDs) == 0 {
		return model.DeleteResponse{}, ErrInvalidInput.New(`no URLs or file IDs provided; send a "urls" or "fileIds" array`)
	}
	ids := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}

	records, err := s.scan(ctx)
	if err != nil {
		return model.DeleteResponse{}, err
	}
	targets := query.FindByIdentity(s.urls, records, urls, ids)
	if len(targets) == 0 {
		return model.DeleteResponse{}, ErrNotFound.Wrap(&DeleteMiss{URLs: urls, IDs: rawIDs})
	}

	type outcome struct {
		deleted *model.DeletedFile
		failed  *model.FailedFile
	}
	outcomes := make([]outcome, len(targets))
	var group errgroup.Group
	group.SetLimit(maxParallelDeletes)
	for i, rec := range targets {
		group.Go(func() error {
			outcomes[i].deleted, outcomes[i].failed = s.deleteOne(ctx, rec)
			return nil
		})
	}
	_ = group.Wait()

	resp := model.DeleteResponse{
		Deleted:  []model.DeletedFile{},
		Failed:   []model.FailedFile{},
		NotFound: unmatched(s.urls, targets, urls, rawIDs),
	}
	for _, o := range outcomes {
		if o.deleted != nil {
			resp.Deleted = append(resp.Deleted, *o.deleted)
		}
		if o.failed != nil {
			resp.Failed = append(resp.Failed, *o.failed)
		}
	}
	resp.Success = len(resp.Failed) == 0
	resp.Summary = model.DeleteSummary{
		TotalRequested:      len(targets),
		SuccessfulDeletions: len(resp.Deleted),
		FailedDeletions:     len(resp.Failed),
	}
	resp.Message = fmt.Sprintf("Successfully deleted %d out of %d files", len(resp.Deleted), len(targets))
	return resp, nil
}

func (s *Service) deleteOne(ctx context.Context, rec model.MediaRecord) (*model.DeletedFile, *model.FailedFile) {
	log := s.log.With(zap.Stringer("key", rec.Key()))
	var deletedFrom, warnings []string

	removeObject := func(what, place, raw string) {
		if raw == "" {
			return
		}
		if s.objects == nil {
			warnings = append(warnings, fmt.Sprintf("%s: object storage is not configured", what))
			return
		}
		loc, ok := s3url.Parse(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: unrecognized object URL %q", what, raw))
			return
		}
		if err := s.objects.Delete(ctx, loc); err != nil {
			log.Warn("object delete failed", zap.String("object", what), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("failed to delete %s: %v", what, err))
			return
		}
		deletedFrom = append(deletedFrom, place)
	}

	removeObject("main file", DeletedMainObject, rec.PrimaryURL)
	if rec.FileType == model.FileTypeImage {
		removeObject("thumbnail", DeletedThumbnailObject, rec.ThumbnailURL)
	}

	if err := s.records.Delete(ctx, rec.Key()); err != nil {
		log.Error("record delete failed", zap.Error(err))
		return nil, &model.FailedFile{
			FileID:   rec.ID,
			FileName: rec.FileName,
			FileType: rec.FileType,
			Error:    err.Error(),
		}
	}
	deletedFrom = append(deletedFrom, DeletedRecord)
	log.Info("deleted record", zap.Strings("from", deletedFrom), zap.Int("warnings", len(warnings)))
	return &model.DeletedFile{
		FileID:      rec.ID,
		FileName:    rec.FileName,
		FileType:    rec.FileType,
		DeletedFrom: deletedFrom,
		Warnings:    warnings,
	}, nil
}

// unmatched lists the requested URLs and ids that no target accounts for.
func unmatched(n *s3url.Normalizer, targets []model.MediaRecord, urls, ids []string) []string {
	var out []string
	for _, u := range urls {
		if _, ok := query.FindFirst(n, targets, u); !ok {
			out = append(out, u)
		}
	}
	for _, raw := range ids {
		found := slices.ContainsFunc(targets, func(rec model.MediaRecord) bool {
			return strconv.FormatInt(rec.ID, 10) == raw
		})
		if !found {
			out = append(out, raw)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
