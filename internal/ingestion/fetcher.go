package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher retrieves the full content of a reference into memory. It does
// not retry and does not re-check the size the validator saw declared.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, downloadTransportError(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, downloadTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:   KindDownloadFailed,
			Reason: ReasonStatus,
			Msg:    fmt.Sprintf("failed to download video: HTTP status code %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, downloadTransportError(err)
	}
	return body, nil
}

func downloadTransportError(err error) *Error {
	return &Error{
		Kind:   KindDownloadFailed,
		Reason: ReasonTransportError,
		Msg:    "failed to download the video",
		Err:    err,
	}
}
