package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// Retag handles the bulk tag endpoint.
func (a *API) Retag() ProxyFunc {
	return a.wrap("retag", func(ctx context.Context, log *zap.Logger, body []byte) (int, any, error) {
		var req model.RetagRequest
		if err := decodeJSON(body, &req); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.Retag(ctx, req)
		if err != nil {
			return 0, nil, err
		}
		log.Info("retag finished",
			zap.Int("updated", len(resp.Updated)),
			zap.Int("skipped", len(resp.Skipped)),
			zap.Int("not_found", len(resp.NotFound)))
		return http.StatusOK, resp, nil
	})
}

// Search handles the tag search endpoint. It accepts the criteria map and,
// when the body carries a "tags" array, the array form.
func (a *API) Search() ProxyFunc {
	return a.wrap("search", func(ctx context.Context, _ *zap.Logger, body []byte) (int, any, error) {
		if isArrayForm(body) {
			return a.fileQuery(ctx, body)
		}
		var criteria model.SearchCriteria
		if err := decodeJSON(body, &criteria); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.Search(ctx, criteria)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, resp, nil
	})
}

// FileQuery handles the array-form query endpoint.
func (a *API) FileQuery() ProxyFunc {
	return a.wrap("filequery", func(ctx context.Context, _ *zap.Logger, body []byte) (int, any, error) {
		return a.fileQuery(ctx, body)
	})
}

func (a *API) fileQuery(ctx context.Context, body []byte) (int, any, error) {
	var req model.FileQueryRequest
	if err := decodeJSON(body, &req); err != nil {
		return 0, nil, err
	}
	resp, err := a.svc.FileQuery(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, resp, nil
}

func isArrayForm(body []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	tags, ok := probe["tags"]
	return ok && bytes.HasPrefix(bytes.TrimSpace(tags), []byte("["))
}

// Thumbnail handles thumbnail to full-size resolution.
func (a *API) Thumbnail() ProxyFunc {
	return a.wrap("thumbnail", func(ctx context.Context, _ *zap.Logger, body []byte) (int, any, error) {
		var req model.ThumbnailRequest
		if err := decodeJSON(body, &req); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.LookupThumbnail(ctx, req.URL())
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, resp, nil
	})
}

// Delete handles bulk deletion. The status is 200 when every matched file
// was removed, 207 when some were, and 500 when none were.
func (a *API) Delete() ProxyFunc {
	return a.wrap("delete", func(ctx context.Context, log *zap.Logger, body []byte) (int, any, error) {
		var req model.DeleteRequest
		if err := decodeJSON(body, &req); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.Delete(ctx, req)
		if err != nil {
			return 0, nil, err
		}
		status := DeleteStatus(resp)
		log.Info("delete finished", zap.Int("status", status),
			zap.Int("deleted", len(resp.Deleted)), zap.Int("failed", len(resp.Failed)))
		return status, resp, nil
	})
}

// DeleteStatus derives the HTTP status of a bulk delete.
func DeleteStatus(resp model.DeleteResponse) int {
	switch {
	case len(resp.Failed) == 0:
		return http.StatusOK
	case len(resp.Deleted) == 0:
		return http.StatusInternalServerError
	}
	return http.StatusMultiStatus
}

// Subscribe handles subscription registration.
func (a *API) Subscribe() ProxyFunc {
	return a.wrap("subscribe", func(ctx context.Context, _ *zap.Logger, body []byte) (int, any, error) {
		var req model.SubscriptionRequest
		if err := decodeJSON(body, &req); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.Subscribe(ctx, req)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, resp, nil
	})
}

// Upload handles presigned upload requests.
func (a *API) Upload() ProxyFunc {
	return a.wrap("upload", func(ctx context.Context, _ *zap.Logger, body []byte) (int, any, error) {
		var req model.UploadRequest
		if err := decodeJSON(body, &req); err != nil {
			return 0, nil, err
		}
		resp, err := a.svc.PresignUpload(ctx, req)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, resp, nil
	})
}

// Ingest stores one classifier result. It is invoked directly, not
// through API Gateway.
func (a *API) Ingest(ctx context.Context, evt model.DetectionEvent) (model.MediaRecord, error) {
	rec, err := a.svc.Ingest(ctx, evt)
	if err != nil {
		a.log.Error("ingest failed", zap.String("original_url", evt.OriginalURL), zap.Error(err))
		return model.MediaRecord{}, err
	}
	return rec, nil
}
