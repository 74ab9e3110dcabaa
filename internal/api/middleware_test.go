package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kvstore/internal/logs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom!")
	})

	recovered := RecoveryMiddleware(logger)(panicHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	recovered.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal server error")

	entries := logger.GetLast(1)
	require.Len(t, entries, 1)
	assert.Equal(t, logs.ERROR, entries[0].Level)
	assert.Equal(t, "panic recovered", entries[0].Message)
}

func TestLoggingMiddleware(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logger.GetLast(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "/health", entries[0].Fields["path"])
	assert.Equal(t, http.StatusTeapot, entries[0].Fields["status"])
}

func TestChain(t *testing.T) {
	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	order := []string{}
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				w.Header().Set("X-"+name, "true")
				next.ServeHTTP(w, r)
			})
		}
	}

	chained := Chain(finalHandler, mw("A"), mw("B"))
	rr := httptest.NewRecorder()
	chained.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"A", "B"}, order)
	assert.Equal(t, "true", rr.Header().Get("X-A"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
