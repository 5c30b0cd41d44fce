package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	perr "beesync/internal/platform/errors"
)

// Kind classifies a TransportError
type Kind uint8

const (
	KindCustom Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "notFound"
	case KindServerError:
		return "serverError"
	}
	return "custom"
}

// TransportError is any failed exchange with the ledger
// Status is zero when no response was received
type TransportError struct {
	Status  int
	Message string
	cause   error
}

// Kind derives the error class from the status
func (e *TransportError) Kind() Kind {
	switch {
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case e.Status == http.StatusForbidden:
		return KindForbidden
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status >= 500:
		return KindServerError
	}
	return KindCustom
}

// Code maps the error onto the shared error codes
func (e *TransportError) Code() perr.ErrorCode {
	switch e.Kind() {
	case KindUnauthorized:
		return perr.ErrorCodeUnauthorized
	case KindForbidden:
		return perr.ErrorCodeForbidden
	case KindNotFound:
		return perr.ErrorCodeNotFound
	case KindServerError:
		return perr.ErrorCodeServer
	}
	switch {
	case e.Status == 0:
		return perr.ErrorCodeUnavailable
	case e.Status == http.StatusTooManyRequests:
		return perr.ErrorCodeTooManyRequests
	case e.Status >= 400 && e.Status < 500:
		return perr.ErrorCodeInvalidArgument
	}
	return perr.ErrorCodeUnknown
}

// Error interface
func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("ledger %s: %s", e.Kind(), e.Message)
	}
	return fmt.Sprintf("ledger %s (%d): %s", e.Kind(), e.Status, e.Message)
}

// Unwrap exposes the error as a perr error so callers can branch on perr.IsCode
func (e *TransportError) Unwrap() error {
	return perr.Wrap(e.cause, e.Code(), e.Message)
}

// HTTPStatus interface
func (e *TransportError) HTTPStatus() int { return e.Status }

// errorBody is the ledger's error payload; either field may be set
type errorBody struct {
	ErrorMessage string          `json:"error_message"`
	Errors       json.RawMessage `json:"errors"`
}

// readError consumes resp and turns it into a *TransportError
func readError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return &TransportError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, b)}
}

func errorMessage(status int, b []byte) string {
	var eb errorBody
	if json.Unmarshal(b, &eb) == nil {
		if eb.ErrorMessage != "" {
			return eb.ErrorMessage
		}
		if len(eb.Errors) > 0 && string(eb.Errors) != "null" {
			var s string
			if json.Unmarshal(eb.Errors, &s) == nil {
				return s
			}
			return string(eb.Errors)
		}
	}
	if s := strings.TrimSpace(string(b)); s != "" && !strings.HasPrefix(s, "<") {
		return s
	}
	return http.StatusText(status)
}
