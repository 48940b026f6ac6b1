package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/catalog"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/handler"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/httpapi"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/idempotency"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/objects"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/memstore"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.Put(context.Background(), model.MediaRecord{
		ID: 5, FileType: model.FileTypeImage, FileName: "crow_01.jpg",
		PrimaryURL: "s3://birds/image/crow_01.jpg",
		Tags:       model.TagList{"crow"}, Counts: model.CountList{2},
	}))
	log := zaptest.NewLogger(t)
	svc := catalog.New(catalog.Deps{
		Records:       st,
		Subscriptions: st,
		Guard:         idempotency.New(st, 30*time.Second),
		Objects:       objects.NewMemory(),
		URLs:          s3url.New("ap-southeast-2"),
		Log:           log,
		Bucket:        "birds",
	})
	srv := httptest.NewServer(httpapi.NewRouter(handler.New(svc, log), log))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchOverHTTP(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/search", "application/json", strings.NewReader(`{"crow":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var out model.SearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, []string{"https://birds.s3.ap-southeast-2.amazonaws.com/image/crow_01.jpg"}, out.Links)
}

func TestMethodHandling(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/thumbnail")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/delete", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestIngestOverHTTP(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/ingest", "application/json",
		strings.NewReader(`{"type":"audio","originalUrl":"s3://birds/audio/tui.wav","tags":["tui"],"counts":[1]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var key model.RecordKey
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&key))
	require.Equal(t, model.FileTypeAudio, key.FileType)

	resp2, err := http.Post(srv.URL+"/api/ingest", "application/json", strings.NewReader(`{"type":"audio"}`))
	require.NoError(t, err)
	_ = resp2.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- httpapi.Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), zaptest.NewLogger(t))
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
