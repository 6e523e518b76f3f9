package ingestion

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultMaxSourceBytes is the ceiling on a source video's declared size.
const DefaultMaxSourceBytes int64 = 100 * 1024 * 1024

// HTTPValidator checks a remote reference is fetchable and within budget
// before any bytes are moved. It looks at the status line and headers only.
type HTTPValidator struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPValidator returns a validator with the given ceiling. A nil client
// uses http.DefaultClient; a non-positive ceiling uses DefaultMaxSourceBytes.
func NewHTTPValidator(client *http.Client, maxBytes int64) *HTTPValidator {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	return &HTTPValidator{client: client, maxBytes: maxBytes}
}

// Validate returns nil or an InvalidLink *Error. A response without a
// declared Content-Length passes the size check.
func (v *HTTPValidator) Validate(ctx context.Context, ref string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return linkTransportError(err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return linkTransportError(err)
	}
	// The body is never read; closing early drops the connection.
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{
			Kind:   KindInvalidLink,
			Reason: ReasonUnreachable,
			Msg:    fmt.Sprintf("the URL is invalid or inaccessible (status %d)", resp.StatusCode),
		}
	}

	if resp.ContentLength > v.maxBytes {
		return &Error{
			Kind:   KindInvalidLink,
			Reason: ReasonTooLarge,
			Msg:    fmt.Sprintf("the file size of %d bytes exceeds the %d byte limit", resp.ContentLength, v.maxBytes),
		}
	}

	return nil
}

func linkTransportError(err error) *Error {
	return &Error{
		Kind:   KindInvalidLink,
		Reason: ReasonTransportError,
		Msg:    "failed to validate the video link",
		Err:    err,
	}
}
