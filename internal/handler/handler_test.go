package handler_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/catalog"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/handler"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/idempotency"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/objects"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/memstore"
)

func newAPI(t *testing.T) (*handler.API, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	objs := objects.NewMemory()
	require.NoError(t, st.Put(ctx, model.MediaRecord{
		ID: 5, FileType: model.FileTypeImage, FileName: "crow_01.jpg",
		PrimaryURL:   "s3://birds/image/crow_01.jpg",
		ThumbnailURL: "s3://birds/thumbnails/crow_01.jpg",
		Tags:         model.TagList{"crow", "pigeon"}, Counts: model.CountList{3, 1},
	}))
	require.NoError(t, st.Put(ctx, model.MediaRecord{
		ID: 6, FileType: model.FileTypeImage, FileName: "crow_02.jpg",
		PrimaryURL: "s3://birds/image/crow_02.jpg",
		Tags:       model.TagList{"crow", "pigeon"}, Counts: model.CountList{1, 1},
	}))
	objs.Put(s3url.Location{Bucket: "birds", Key: "image/crow_01.jpg"})

	log := zaptest.NewLogger(t)
	svc := catalog.New(catalog.Deps{
		Records:       st,
		Subscriptions: st,
		Guard:         idempotency.New(st, 30*time.Second),
		Objects:       objs,
		Publisher:     notify.NewPublisher(nil, "", log),
		URLs:          s3url.New("ap-southeast-2"),
		Log:           log,
		Bucket:        "birds",
	})
	return handler.New(svc, log), st
}

func post(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       body,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: "req-1",
		},
	}
}

func call(t *testing.T, fn handler.ProxyFunc, req events.APIGatewayProxyRequest, out any) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := fn(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(resp.Body), out), resp.Body)
	}
	return resp
}

func TestMethods(t *testing.T) {
	api, _ := newAPI(t)

	resp := call(t, api.Search(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	require.Empty(t, resp.Body)

	var errBody model.ErrorResponse
	resp = call(t, api.Delete(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet}, &errBody)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Contains(t, errBody.Error, "Only POST")
}

func TestSearchForms(t *testing.T) {
	api, _ := newAPI(t)

	var out model.SearchResponse
	resp := call(t, api.Search(), post(`{"crow": 2}`), &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Equal(t, 1, out.TotalCount)
	require.Equal(t, int64(5), out.Results[0].FileID)

	out = model.SearchResponse{}
	resp = call(t, api.Search(), post(`{"tags": ["pigeon"]}`), &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, out.TotalCount)
	require.Equal(t, []string{"pigeon"}, out.SearchTags)

	req := post(base64.StdEncoding.EncodeToString([]byte(`{"tags":["crow"],"counts":[3]}`)))
	req.IsBase64Encoded = true
	out = model.SearchResponse{}
	resp = call(t, api.FileQuery(), req, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, out.TotalCount)

	var errBody model.ErrorResponse
	resp = call(t, api.Search(), post(`{}`), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, api.Search(), post(`{"crow":`), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errBody.Error, "invalid JSON")
}

func TestRetagAndDuplicate(t *testing.T) {
	api, st := newAPI(t)
	body := `{"url":["s3://birds/image/crow_02.jpg"],"operation":1,"tags":["owl",2]}`

	var first model.RetagResponse
	resp := call(t, api.Retag(), post(body), &first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, first.Updated, 1)

	var second model.RetagResponse
	call(t, api.Retag(), post(body), &second)
	require.Empty(t, second.Updated)
	require.Len(t, second.Skipped, 1)

	rec, err := st.Get(context.Background(), model.RecordKey{ID: 6, FileType: model.FileTypeImage})
	require.NoError(t, err)
	require.Equal(t, model.CountList{1, 1, 2}, rec.Counts)

	var errBody model.ErrorResponse
	resp = call(t, api.Retag(), post(`{"url":["x"],"operation":1,"tags":["owl"]}`), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestThumbnail(t *testing.T) {
	api, _ := newAPI(t)

	var found model.ThumbnailResponse
	resp := call(t, api.Thumbnail(), post(`{"thumbnail_url":"s3://birds/thumbnails/crow_01.jpg"}`), &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://birds.s3.ap-southeast-2.amazonaws.com/image/crow_01.jpg", found.FullSizeURL)

	var miss model.ThumbnailNotFoundResponse
	resp = call(t, api.Thumbnail(), post(`{"thumbnailUrl":"https://birds.s3.ap-southeast-2.amazonaws.com/thumbnails/none.jpg/"}`), &miss)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "https://birds.s3.ap-southeast-2.amazonaws.com/thumbnails/none.jpg/", miss.SearchedURL)
	require.Equal(t, "https://birds.s3.ap-southeast-2.amazonaws.com/thumbnails/none.jpg", miss.NormalizedURL)

	var errBody model.ErrorResponse
	resp = call(t, api.Thumbnail(), post(`{}`), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	api, _ := newAPI(t)

	var miss model.DeleteNotFoundResponse
	resp := call(t, api.Delete(), post(`{"urls":["s3://birds/none.jpg"]}`), &miss)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, []string{"s3://birds/none.jpg"}, miss.SearchedURLs)
	require.Equal(t, []string{}, miss.SearchedIDs)

	var out model.DeleteResponse
	resp = call(t, api.Delete(), post(`{"urls":["s3://birds/image/crow_01.jpg","s3://birds/none.jpg"],"fileIds":[6]}`), &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Deleted, 2)
	require.Equal(t, []string{"s3://birds/none.jpg"}, out.NotFound)
}

func TestDeleteStatus(t *testing.T) {
	ok := model.DeletedFile{FileID: 1}
	bad := model.FailedFile{FileID: 2}
	require.Equal(t, http.StatusOK, handler.DeleteStatus(model.DeleteResponse{Deleted: []model.DeletedFile{ok}}))
	require.Equal(t, http.StatusMultiStatus, handler.DeleteStatus(model.DeleteResponse{Deleted: []model.DeletedFile{ok}, Failed: []model.FailedFile{bad}}))
	require.Equal(t, http.StatusInternalServerError, handler.DeleteStatus(model.DeleteResponse{Failed: []model.FailedFile{bad}}))
}

func TestSubscribeAndUpload(t *testing.T) {
	api, st := newAPI(t)

	var msg model.MessageResponse
	resp := call(t, api.Subscribe(), post(`{"email":"a@example.com","tags":["Crow"]}`), &msg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	subs, err := st.ScanSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	var errBody model.ErrorResponse
	resp = call(t, api.Subscribe(), post(``), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var up model.UploadResponse
	resp = call(t, api.Upload(), post(`{"fileName":"crow_09.jpg","contentType":"image/jpeg"}`), &up)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/crow_09.jpg", up.Key)

	resp = call(t, api.Upload(), post(`{"fileName":"crow_01.jpg","contentType":"image/jpeg"}`), &errBody)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, api.Upload(), post(`{"fileName":"a.txt","contentType":"text/plain"}`), &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngest(t *testing.T) {
	api, st := newAPI(t)
	rec, err := api.Ingest(context.Background(), model.DetectionEvent{
		Type: "video", OriginalURL: "s3://birds/video/kiwi.mp4", Tags: model.TagList{"kiwi"},
	})
	require.NoError(t, err)
	require.Less(t, rec.ID, int64(model.MaxRecordID))

	got, err := st.Get(context.Background(), rec.Key())
	require.NoError(t, err)
	require.Equal(t, model.TagList{"kiwi"}, got.Tags)

	_, err = api.Ingest(context.Background(), model.DetectionEvent{Type: "video"})
	require.Error(t, err)
}

type countingMailer struct{ to []string }

func (m *countingMailer) Send(_ context.Context, msg notify.Email) error {
	m.to = append(m.to, msg.To)
	return nil
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, st.PutSubscription(ctx, model.NewTagSubscription("a@example.com", []string{"crow"})))
	mailer := &countingMailer{}
	log := zaptest.NewLogger(t)
	n := handler.NewNotifier(notify.NewDispatcher(st, mailer, log), log)

	err := n.Handle(ctx, events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		{EventName: "INSERT", Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
			"id":        events.NewNumberAttribute("5"),
			"file_type": events.NewStringAttribute("image"),
			"tags":      events.NewStringAttribute("crow"),
		}}},
		{EventName: "INSERT", Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
			"id":        events.NewNumberAttribute("6"),
			"file_type": events.NewStringAttribute("image"),
			"tags":      events.NewBooleanAttribute(true),
		}}},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com"}, mailer.to)
}
