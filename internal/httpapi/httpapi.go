// Package httpapi serves the Lambda handlers over plain HTTP for local
// runs. Each request is translated into an API Gateway proxy event so the
// handlers behave exactly as they do behind API Gateway.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/handler"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

const maxBodyBytes = 10 << 20

// NewRouter mounts every operation of api under /api.
func NewRouter(api *handler.API, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.HandleFunc("/retag", proxy(api.Retag()))
		r.HandleFunc("/search", proxy(api.Search()))
		r.HandleFunc("/filequery", proxy(api.FileQuery()))
		r.HandleFunc("/thumbnail", proxy(api.Thumbnail()))
		r.HandleFunc("/delete", proxy(api.Delete()))
		r.HandleFunc("/subscribe", proxy(api.Subscribe()))
		r.HandleFunc("/upload", proxy(api.Upload()))
		r.Post("/ingest", ingest(api))
	})
	return r
}

type requestIDKey struct{}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
			log.Info("http request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return uuid.NewString()
}

// proxy adapts a ProxyFunc to net/http.
func proxy(fn handler.ProxyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "request body too large"})
			return
		}

		headers := make(map[string]string, len(r.Header))
		for name := range r.Header {
			headers[name] = r.Header.Get(name)
		}
		query := make(map[string]string, len(r.URL.Query()))
		for name := range r.URL.Query() {
			query[name] = r.URL.Query().Get(name)
		}

		resp, err := fn(r.Context(), events.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			Headers:               headers,
			QueryStringParameters: query,
			Body:                  string(body),
			RequestContext: events.APIGatewayProxyRequestContext{
				RequestID:  requestID(r.Context()),
				HTTPMethod: r.Method,
				Path:       r.URL.Path,
			},
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error", Details: err.Error()})
			return
		}
		for name, value := range resp.Headers {
			w.Header().Set(name, value)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	}
}

func ingest(api *handler.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt model.DetectionEvent
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&evt); err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid JSON in request body", Details: err.Error()})
			return
		}
		rec, err := api.Ingest(r.Context(), evt)
		if err != nil {
			writeJSON(w, handler.StatusCode(err), model.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, rec.Key())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("server starting", zap.String("addr", addr))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
