package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/registry"
)

type ingesterFunc func(context.Context, Request) Response

func (f ingesterFunc) Ingest(ctx context.Context, req Request) Response { return f(ctx, req) }

type lookupFunc func(context.Context, string) (*registry.ProcessRecord, error)

func (f lookupFunc) GetProcess(ctx context.Context, id string) (*registry.ProcessRecord, error) {
	return f(ctx, id)
}

func serve(t *testing.T, h *HTTPHandler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHandleIngestSuccess(t *testing.T) {
	var got Request
	svc := ingesterFunc(func(_ context.Context, req Request) Response {
		got = req
		return Response{StatusCode: http.StatusOK, Body: &SuccessBody{ProcessID: "123", VideoID: "123", StorageKey: "videos/123/123-source.mp4"}}
	})
	h := NewHTTPHandler(svc, zap.NewNop(), HandlerOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestions", strings.NewReader(`{
		"videoId": "123",
		"username": "testuser",
		"video_url": "http://valid/video.mp4",
		"email": "testuser@example.com",
		"frame_rate": 3
	}`))
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	rec, body := serve(t, h, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123", body["videoId"])
	assert.Equal(t, "videos/123/123-source.mp4", body["storageKey"])
	assert.Equal(t, Request{
		ProcessID: "123",
		Username:  "testuser",
		Email:     "testuser@example.com",
		VideoLink: "http://valid/video.mp4",
		FrameRate: 3,
		Token:     "abc.def.ghi",
	}, got)
}

func TestHandleIngestFailureEnvelope(t *testing.T) {
	svc := ingesterFunc(func(context.Context, Request) Response {
		return Response{StatusCode: http.StatusBadRequest, Body: ErrorBody{Error: "failed to upload video to storage: boom"}}
	})
	h := NewHTTPHandler(svc, zap.NewNop(), HandlerOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestions", strings.NewReader(`{"videoLink":"http://valid/video.mp4"}`))
	rec, body := serve(t, h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "failed to upload video to storage: boom", body["error"])
}

func TestHandleIngestMalformedPayload(t *testing.T) {
	called := false
	svc := ingesterFunc(func(context.Context, Request) Response {
		called = true
		return Response{}
	})
	h := NewHTTPHandler(svc, zap.NewNop(), HandlerOptions{MaxEventBytes: 32})

	for _, payload := range []string{`{"videoLink":`, `{"videoLink":"http://valid/` + strings.Repeat("a", 64) + `"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestions", strings.NewReader(payload))
		rec, body := serve(t, h, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "invalid event payload")
	}
	assert.False(t, called)
}

func TestHealthAndReadiness(t *testing.T) {
	h := NewHTTPHandler(ingesterFunc(nil), zap.NewNop(), HandlerOptions{
		Checks: map[string]Check{
			"storage":  func(context.Context) error { return nil },
			"database": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rec, body := serve(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = serve(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "ok", body["storage"])
	assert.Equal(t, "connection refused", body["database"])
}

func TestHandleGetProcess(t *testing.T) {
	created := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	lookup := lookupFunc(func(_ context.Context, id string) (*registry.ProcessRecord, error) {
		switch id {
		case "123":
			rec := registry.NewProcessRecord("123", created)
			return &rec, nil
		case "broken":
			return nil, errors.New("db down")
		default:
			return nil, registry.ErrProcessNotFound
		}
	})
	h := NewHTTPHandler(ingesterFunc(nil), zap.NewNop(), HandlerOptions{Lookup: lookup})

	rec, body := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/ingestions/123", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PROCESSING", body["status"])
	assert.Nil(t, body["finishedAt"])

	rec, _ = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/ingestions/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/ingestions/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEventRequestPrefersVideoLink(t *testing.T) {
	req := Event{VideoLink: " http://a/x.mp4 ", VideoURL: "http://b/y.mp4", Username: " testuser "}.Request()
	assert.Equal(t, "http://a/x.mp4", req.VideoLink)
	assert.Equal(t, "testuser", req.Username)
}
