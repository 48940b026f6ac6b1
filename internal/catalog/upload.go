package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// PresignUpload issues a presigned PUT URL for <type>/<fileName>, where
// type is the major part of the content type. Existing objects are never
// overwritten. When the species prefix of the file name has subscribers an
// announcement is published; publish failures are only logged.
func (s *Service) PresignUpload(ctx context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		return model.UploadResponse{}, ErrInvalidInput.New("fileName is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return model.UploadResponse{}, ErrInvalidInput.New("fileName %q must not contain a path", name)
	}
	contentType := strings.TrimSpace(req.ContentType)
	major, _, _ := strings.Cut(contentType, "/")
	fileType, ok := model.ParseFileType(major)
	if !ok {
		return model.UploadResponse{}, ErrInvalidInput.New("only image, video, or audio files are allowed")
	}
	if s.objects == nil || s.bucket == "" {
		return model.UploadResponse{}, Error.New("upload bucket is not configured")
	}

	loc := s3url.Location{Bucket: s.bucket, Key: string(fileType) + "/" + name}
	exists, err := s.objects.Exists(ctx, loc)
	if err != nil {
		return model.UploadResponse{}, Error.Wrap(err)
	}
	if exists {
		return model.UploadResponse{}, ErrConflict.New("a file named %q already exists", loc.Key)
	}

	url, err := s.objects.PresignPut(ctx, loc, contentType, s.presignTTL)
	if err != nil {
		return model.UploadResponse{}, Error.Wrap(err)
	}
	s.announce(ctx, fileType, name)

	return model.UploadResponse{
		URL:       url,
		Key:       loc.Key,
		ExpiresIn: int(s.presignTTL.Seconds()),
	}, nil
}

func (s *Service) announce(ctx context.Context, fileType model.FileType, name string) {
	if s.publisher == nil || s.subs == nil {
		return
	}
	species := SpeciesPrefix(name)
	if species == "" {
		return
	}
	subs, err := s.subs.ScanSubscriptions(ctx)
	if err != nil {
		s.log.Warn("reading subscriptions for upload announcement failed", zap.Error(err))
		return
	}
	for _, sub := range subs {
		if !sub.Matches([]string{species}) {
			continue
		}
		err := s.publisher.Publish(ctx,
			fmt.Sprintf("New %s Upload", species),
			fmt.Sprintf("A new %s file tagged with %q has been uploaded.", fileType, species))
		if err != nil {
			s.log.Warn("upload announcement failed", zap.String("species", species), zap.Error(err))
		}
		return
	}
}

// SpeciesPrefix guesses the species from an upload name: the lower-cased
// text before the first underscore, without extension.
func SpeciesPrefix(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	prefix, _, _ := strings.Cut(name, "_")
	return strings.ToLower(strings.TrimSpace(prefix))
}
