// Package handler adapts catalog flows to Lambda events: API Gateway proxy
// requests for the HTTP operations, DynamoDB stream batches for
// notifications, and direct invocation for detection ingest.
package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/catalog"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// ProxyFunc is the signature lambda.Start expects for API Gateway proxy
// integrations.
type ProxyFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// flow runs one operation on a decoded body and returns the status and
// JSON body of a successful response.
type flow func(ctx context.Context, log *zap.Logger, body []byte) (int, any, error)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// API exposes one ProxyFunc per HTTP operation.
type API struct {
	svc *catalog.Service
	log *zap.Logger
}

// New returns an API over svc.
func New(svc *catalog.Service, log *zap.Logger) *API {
	return &API{svc: svc, log: log}
}

func (a *API) wrap(name string, run flow) ProxyFunc {
	log := a.log.Named(name)
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		reqLog := log.With(zap.String("request_id", requestID(ctx, req)))

		switch req.HTTPMethod {
		case http.MethodOptions:
			return respond(http.StatusOK, nil), nil
		case http.MethodPost:
		default:
			reqLog.Debug("rejected method", zap.String("method", req.HTTPMethod))
			return respond(http.StatusMethodNotAllowed, model.ErrorResponse{
				Error: "Method not allowed. Only POST requests are supported.",
			}), nil
		}

		body, err := decodeBody(req)
		if err != nil {
			return respond(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body encoding.", Details: err.Error()}), nil
		}

		status, out, err := run(ctx, reqLog, body)
		if err != nil {
			return errorResponse(reqLog, err), nil
		}
		return respond(status, out), nil
	}
}

func requestID(ctx context.Context, req events.APIGatewayProxyRequest) string {
	if id := req.RequestContext.RequestID; id != "" {
		return id
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

func decodeBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

// decodeJSON unmarshals body into v. An empty body decodes as {} so the
// flow reports which field is missing.
func decodeJSON(body []byte, v any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return catalog.ErrInvalidInput.New("invalid JSON in request body: %v", err)
	}
	return nil
}

func errorResponse(log *zap.Logger, err error) events.APIGatewayProxyResponse {
	var thumbMiss *catalog.ThumbnailMiss
	var deleteMiss *catalog.DeleteMiss
	switch {
	case errors.As(err, &thumbMiss):
		return respond(http.StatusNotFound, model.ThumbnailNotFoundResponse{
			Error:         "No file found with the provided thumbnail URL.",
			SearchedURL:   thumbMiss.SearchedURL,
			NormalizedURL: thumbMiss.NormalizedURL,
		})
	case errors.As(err, &deleteMiss):
		return respond(http.StatusNotFound, model.DeleteNotFoundResponse{
			Error:        "No matching files found for deletion.",
			SearchedURLs: nonNil(deleteMiss.URLs),
			SearchedIDs:  nonNil(deleteMiss.IDs),
		})
	}

	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		return respond(status, model.ErrorResponse{Error: "Internal server error", Details: err.Error()})
	}
	log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	return respond(status, model.ErrorResponse{Error: err.Error()})
}

// StatusCode maps a catalog error class to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case catalog.ErrInvalidInput.Has(err):
		return http.StatusBadRequest
	case catalog.ErrNotFound.Has(err):
		return http.StatusNotFound
	case catalog.ErrConflict.Has(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		headers[k] = v
	}
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	if body == nil {
		return resp
	}
	data, err := json.Marshal(body)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		data = []byte(`{"error":"Internal server error"}`)
	}
	headers["Content-Type"] = "application/json"
	resp.Body = string(data)
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
