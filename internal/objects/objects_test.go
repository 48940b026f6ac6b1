package objects_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/objects"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
)

type fakeS3 struct {
	deleted []string
	headErr error
	delErr  error
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
	input   *s3.PutObjectInput
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	f.input = in
	return &v4.PresignedHTTPRequest{URL: "https://birds.s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

var crow = s3url.Location{Bucket: "birds", Key: "image/crow.jpg"}

func TestS3Delete(t *testing.T) {
	api := &fakeS3{}
	s := objects.NewS3(api, nil, zaptest.NewLogger(t))
	require.NoError(t, s.Delete(context.Background(), crow))
	require.Equal(t, []string{"birds/image/crow.jpg"}, api.deleted)

	api.delErr = errors.New("access denied")
	err := s.Delete(context.Background(), crow)
	require.True(t, objects.Error.Has(err))
}

func TestS3Exists(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{"present", nil, true, false},
		{"typed not found", &s3types.NotFound{}, false, false},
		{"api error code", &smithy.GenericAPIError{Code: "NoSuchKey"}, false, false},
		{"other failure", &smithy.GenericAPIError{Code: "AccessDenied"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := objects.NewS3(&fakeS3{headErr: tt.err}, nil, zaptest.NewLogger(t))
			got, err := s.Exists(context.Background(), crow)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestS3PresignPut(t *testing.T) {
	p := &fakePresigner{}
	s := objects.NewS3(&fakeS3{}, p, zaptest.NewLogger(t))

	u, err := s.PresignPut(context.Background(), crow, "image/jpeg", 300*time.Second)
	require.NoError(t, err)
	require.Contains(t, u, "image/crow.jpg")
	require.Equal(t, 300*time.Second, p.expires)
	require.Equal(t, "image/jpeg", aws.ToString(p.input.ContentType))

	_, err = objects.NewS3(&fakeS3{}, nil, zaptest.NewLogger(t)).PresignPut(context.Background(), crow, "image/jpeg", time.Minute)
	require.Error(t, err)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := objects.NewMemory()
	m.Put(crow)

	ok, err := m.Exists(ctx, crow)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Delete(ctx, crow))
	ok, err = m.Exists(ctx, crow)
	require.NoError(t, err)
	require.False(t, ok)

	m.FailDeletes(crow, errors.New("boom"))
	require.True(t, objects.Error.Has(m.Delete(ctx, crow)))

	u, err := m.PresignPut(ctx, crow, "image/jpeg", 5*time.Minute)
	require.NoError(t, err)
	require.Equal(t, "memory://birds/image/crow.jpg?content-type=image%2Fjpeg&expires=300", u)
}
