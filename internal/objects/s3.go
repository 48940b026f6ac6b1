package objects

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

// S3API is the subset of *s3.Client used by S3.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used by S3.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 is a Store backed by Amazon S3.
type S3 struct {
	api       S3API
	presigner Presigner
	log       *zap.Logger
}

var _ Store = (*S3)(nil)

// NewS3 returns an S3 store. presigner may be nil when PresignPut is never
// called.
func NewS3(api S3API, presigner Presigner, log *zap.Logger) *S3 {
	return &S3{api: api, presigner: presigner, log: log}
}

// Delete implements Store.
func (s *S3) Delete(ctx context.Context, loc s3url.Location) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return Error.New("delete %s: %w", loc, err)
	}
	s.log.Debug("deleted object", zap.Stringer("object", loc))
	return nil
}

// Exists implements Store.
func (s *S3) Exists(ctx context.Context, loc s3url.Location) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, Error.New("head %s: %w", loc, err)
}

// PresignPut implements Store.
func (s *S3) PresignPut(ctx context.Context, loc s3url.Location, contentType string, ttl time.Duration) (string, error) {
	if s.presigner == nil {
		return "", Error.New("presigning is not configured")
	}
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", Error.New("presign %s: %w", loc, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
