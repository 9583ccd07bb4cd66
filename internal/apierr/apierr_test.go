package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/listings-api/renet"
)

func TestFromUpstream(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   Code
		status int
	}{
		{"unauthorized", &renet.UpstreamError{Status: 401}, CodeAuthentication, http.StatusBadGateway},
		{"not found", &renet.UpstreamError{Status: 404}, CodeNotFound, http.StatusNotFound},
		{"empty detail", renet.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{"rate limited", &renet.UpstreamError{Status: 429}, CodeRateLimit, http.StatusServiceUnavailable},
		{"upstream timeout", &renet.UpstreamError{Status: 408}, CodeTimeout, http.StatusServiceUnavailable},
		{"local deadline", &renet.UpstreamError{Err: context.DeadlineExceeded}, CodeTimeout, http.StatusServiceUnavailable},
		{"server error", fmt.Errorf("agents: %w", &renet.UpstreamError{Status: 500, Body: "stack trace"}), CodeAPIConnection, http.StatusBadGateway},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromUpstream(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, UserMessage(tc.code), got.Message)
			assert.NotContains(t, got.Message, "stack trace")
		})
	}
}

func TestValidationCarriesFields(t *testing.T) {
	e := Validation("Missing required fields: email", "email")
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, []string{"email"}, e.Fields)
	assert.Equal(t, CodeValidation, FromUpstream(e).Code)
}
