package renet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// UpstreamError is returned for any failed call to an upstream API.
// Status is 0 when no response was received.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time, either locally or upstream.
func (e *UpstreamError) Timeout() bool {
	if e.Status == http.StatusRequestTimeout || e.Status == http.StatusGatewayTimeout {
		return true
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// NotFound reports a 404 from upstream.
func (e *UpstreamError) NotFound() bool { return e.Status == http.StatusNotFound }

// AsUpstream unwraps err into an UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
