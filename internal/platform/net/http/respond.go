// Package http provides the router facade, server and JSON envelope used by the beesync API
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "beesync/internal/platform/errors"
	pnet "beesync/internal/platform/net"
	"beesync/internal/platform/net/http/bind"
)

// Envelope is the response body of every endpoint
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response is returned by return-style handlers
type Response struct {
	Status int
	Body   any
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Accepted returns a 202 response for work continuing in the background
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// Error returns a response whose status is derived from err
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	reqID := pnet.RequestID(r.Context())
	if err, ok := resp.Body.(error); ok && err != nil {
		RespondError(w, r, err)
		return
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  reqID,
		Data:       resp.Body,
	})
}

// RespondError maps err to its status and writes the error envelope
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, wire := perr.HTTP(err)
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		Field:      wire.Field,
		RequestID:  pnet.RequestID(r.Context()),
	})
}

// GetJSON mounts a handler that takes no body
func GetJSON(r Router, path string, h func(*stdhttp.Request) (any, error)) {
	r.Get(path, Handle(func(req *stdhttp.Request) Response {
		out, err := h(req)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	}))
}

// PostJSON mounts a handler whose body is decoded and validated into T
// An empty body yields the zero T so every field can be optional
func PostJSON[T any](r Router, path string, status int, h func(*stdhttp.Request, T) (any, error)) {
	r.Post(path, Handle(func(req *stdhttp.Request) Response {
		in, err := bind.ParseJSON[T](req, bind.JSONOptions{MaxBytes: 1 << 16, DisallowUnknown: true, AllowEmptyBody: true})
		if err != nil {
			return Error(err)
		}
		out, err := h(req, in)
		if err != nil {
			return Error(err)
		}
		return Response{Status: status, Body: out}
	}))
}
