package api

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindTimeout means the per-request deadline expired and the request was aborted.
	KindTimeout Kind = iota + 1
	// KindServerRejected means the service answered with a non-success status.
	KindServerRejected
	// KindConnectivity covers every other transport or decoding failure.
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServerRejected:
		return "server_rejected"
	case KindConnectivity:
		return "connectivity"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single failure type both client operations return. Error()
// is the human-readable message shown to the user as-is.
type Error struct {
	Kind    Kind
	Op      string // "search" or "document"
	Status  int    // HTTP status for KindServerRejected
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTimeout
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

const (
	opSearch   = "search"
	opDocument = "document"

	msgUnreadableBody = "Sunucu yanıtı okunamadı."
	msgServerStatus   = "Sunucu hatası: %s"
)

var timeoutMessages = map[string]string{
	opSearch:   "Arama isteği zaman aşımına uğradı. Lütfen tekrar deneyin.",
	opDocument: "Belge detayı isteği zaman aşımına uğradı. Lütfen tekrar deneyin.",
}

var connectivityMessages = map[string]string{
	opSearch:   "Arama hizmetine ulaşılamadı. Lütfen ağ bağlantınızı kontrol edin veya daha sonra tekrar deneyin.",
	opDocument: "Belge detayları hizmetine ulaşılamadı. Lütfen ağ bağlantınızı kontrol edin veya daha sonra tekrar deneyin.",
}

// transportError turns a failure observed under reqCtx into a timeout or
// connectivity Error.
func transportError(reqCtx context.Context, op string, err error) *Error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Message: timeoutMessages[op], Err: err}
	}
	return &Error{Kind: KindConnectivity, Op: op, Message: connectivityMessages[op], Err: err}
}
