package ingestion

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReturnsExactBytes(t *testing.T) {
	payload := make([]byte, 256*1024)
	for i := range payload {
		payload[i] = byte(i * 31)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	got, err := NewHTTPFetcher(srv.Client()).Fetch(t.Context(), srv.URL+"/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.Client()).Fetch(t.Context(), srv.URL)
	requireReason(t, err, KindDownloadFailed, ReasonStatus)
	assert.Contains(t, err.Error(), "410")
}

func TestFetchTransportFault(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset by peer")
	})}

	_, err := NewHTTPFetcher(client).Fetch(t.Context(), "http://valid/video.mp4")
	requireReason(t, err, KindDownloadFailed, ReasonTransportError)
	assert.ErrorIs(t, err, ErrDownloadFailed)
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestFetchBodyReadFault(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(iotest.ErrReader(errors.New("unexpected EOF mid-stream"))),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})}

	_, err := NewHTTPFetcher(client).Fetch(t.Context(), "http://valid/video.mp4")
	requireReason(t, err, KindDownloadFailed, ReasonTransportError)
	assert.Contains(t, err.Error(), "unexpected EOF mid-stream")
}
