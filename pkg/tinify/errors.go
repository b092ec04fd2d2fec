package tinify

import (
	"fmt"
	"net/http"
)

// Kind classifies API failures the way the service documents them.
type Kind int

const (
	KindAccount    Kind = iota // Bad credentials or exhausted monthly limit
	KindClient                 // The request or the uploaded file was rejected
	KindServer                 // Temporary failure on the service side
	KindConnection             // The service could not be reached
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is returned for every failed API interaction.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for connection failures
	Type    string // "error" field of the response body
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("tinify %s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("tinify %s error: %s: %s (HTTP %d)", e.Kind, e.Type, e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// kindForStatus maps a response status to an error kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusTooManyRequests:
		return KindAccount
	case status >= 400 && status < 500:
		return KindClient
	default:
		return KindServer
	}
}
