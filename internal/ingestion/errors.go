package ingestion

import "errors"

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindIdentityUnresolved  Kind = "identity_unresolved"
	KindInvalidLink         Kind = "invalid_link"
	KindDownloadFailed      Kind = "download_failed"
	KindStorageWriteFailed  Kind = "storage_write_failed"
	KindRegistryWriteFailed Kind = "registry_write_failed"
	KindDispatchFailed      Kind = "dispatch_failed"
	KindInternal            Kind = "internal"
)

// Infrastructure reports whether the failure came from a collaborator rather
// than from the caller's input. It does not change the response status.
func (k Kind) Infrastructure() bool {
	switch k {
	case KindStorageWriteFailed, KindRegistryWriteFailed, KindDispatchFailed, KindInternal:
		return true
	default:
		return false
	}
}

// Reasons attached to InvalidLink and DownloadFailed errors.
const (
	ReasonUnreachable    = "unreachable"
	ReasonTooLarge       = "too_large"
	ReasonTransportError = "transport_error"
	ReasonStatus         = "status"
)

// Error is the single error type produced by the pipeline.
type Error struct {
	Kind   Kind
	Reason string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind and, when set, the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidLink         = &Error{Kind: KindInvalidLink}
	ErrLinkUnreachable     = &Error{Kind: KindInvalidLink, Reason: ReasonUnreachable}
	ErrLinkTooLarge        = &Error{Kind: KindInvalidLink, Reason: ReasonTooLarge}
	ErrDownloadFailed      = &Error{Kind: KindDownloadFailed}
	ErrStorageWriteFailed  = &Error{Kind: KindStorageWriteFailed}
	ErrRegistryWriteFailed = &Error{Kind: KindRegistryWriteFailed}
	ErrDispatchFailed      = &Error{Kind: KindDispatchFailed}
)

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
