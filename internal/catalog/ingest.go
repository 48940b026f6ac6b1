package catalog

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/tagging"
)

// Ingest stores the classifier output for an uploaded object as a new
// record with a random id. Tags are lower-cased and merged so each species
// appears once; a missing or non-positive count counts as 1.
func (s *Service) Ingest(ctx context.Context, evt model.DetectionEvent) (model.MediaRecord, error) {
	fileType, ok := model.ParseFileType(evt.Type)
	if !ok {
		return model.MediaRecord{}, ErrInvalidInput.New("type must be image, video or audio, got %q", evt.Type)
	}
	original := strings.TrimSpace(evt.OriginalURL)
	if original == "" {
		return model.MediaRecord{}, ErrInvalidInput.New("originalUrl is required")
	}

	pairs := make([]tagging.Pair, 0, len(evt.Tags))
	for i, tag := range evt.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		count := 1
		if i < len(evt.Counts) && evt.Counts[i] > 0 {
			count = evt.Counts[i]
		}
		pairs = append(pairs, tagging.Pair{Tag: tag, Count: count})
	}
	tags, counts := tagging.Apply(nil, nil, tagging.Add, pairs)

	name := strings.TrimSpace(evt.FileName)
	if name == "" {
		if loc, ok := s3url.Parse(original); ok {
			name = path.Base(loc.Key)
		}
	}

	rec := model.MediaRecord{
		ID:              s.newID(),
		FileType:        fileType,
		FileName:        name,
		PrimaryURL:      original,
		Tags:            tags,
		Counts:          counts,
		UploadTimestamp: s.now().UTC().Format(time.RFC3339),
	}
	if fileType == model.FileTypeImage {
		rec.ThumbnailURL = strings.TrimSpace(evt.ThumbnailURL)
	}

	if err := s.records.Put(ctx, rec); err != nil {
		return model.MediaRecord{}, Error.Wrap(err)
	}
	s.log.Info("ingested record",
		zap.Stringer("key", rec.Key()),
		zap.String("file", rec.FileName),
		zap.Strings("tags", tags))
	return rec, nil
}
