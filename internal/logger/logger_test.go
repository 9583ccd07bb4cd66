package logger

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(SlogConfig{JSON: true, Writer: &buf, Level: ParseLevel("debug")})

	l.WithFields(Fields{"component": "renet"}).Error("upstream failed", errors.New("boom"), Fields{"status": 500})

	out := buf.String()
	assert.Contains(t, out, `"component":"renet"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, "boom")
}

func TestMultiFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMulti(NewSlogAdapter(SlogConfig{JSON: true, Writer: &a}), nil, NewSlogAdapter(SlogConfig{JSON: true, Writer: &b}))
	m.Info("hello", nil)
	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestMiddlewareTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := NewSlogAdapter(SlogConfig{JSON: true, Writer: &buf})

	var seen string
	h := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
		FromContext(r.Context()).Info("inside", nil)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set(TraceHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.NotEqual(t, "not-a-uuid", seen)
	assert.Equal(t, seen, rec.Header().Get(TraceHeader))
	assert.Contains(t, buf.String(), `"status_code":418`)
	assert.Contains(t, buf.String(), seen)
}

func TestFromContextDefaultsToNop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotPanics(t, func() { FromContext(req.Context()).Warn("nothing", nil) })
}
