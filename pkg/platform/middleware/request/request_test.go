package request

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gatehouse/pkg/requestcontext"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method, route string
	status        int
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int) {
	o.seen = append(o.seen, observation{method, route, status})
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r)
	}))

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, got)
		assert.Equal(t, got, w.Header().Get(HeaderRequestID))
	})

	t.Run("caller value reused", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, "abc-123")
		h.ServeHTTP(w, r)

		assert.Equal(t, "abc-123", got)
		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})

	t.Run("oversized caller value replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLength+1))
		h.ServeHTTP(w, r)

		assert.Len(t, got, 36)
	})
}

func TestAccessLog_ObservesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(AccessLog(slog.New(slog.NewJSONHandler(&buf, nil)), obs))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})

	item := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	item = item.WithContext(requestcontext.WithClientMetadata(item.Context(), "203.0.113.7", "gatehouse-cli/1.0"))
	r.ServeHTTP(httptest.NewRecorder(), item)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Len(t, obs.seen, 2)
	assert.Equal(t, observation{http.MethodGet, "/items/{id}", http.StatusTeapot}, obs.seen[0])
	assert.Equal(t, observation{http.MethodGet, "/ok", http.StatusOK}, obs.seen[1])
	assert.Contains(t, buf.String(), `"path":"/items/42"`)
	assert.Contains(t, buf.String(), `"user_agent":"gatehouse-cli/1.0"`)
	assert.Contains(t, buf.String(), `"client_ip":"203.0.113.7"`)
}

func TestAccessLog_FlagsCrawlers(t *testing.T) {
	var buf bytes.Buffer
	h := AccessLog(slog.New(slog.NewJSONHandler(&buf, nil)), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "66.249.66.1",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"bot":true`)
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	h := Recoverer(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, "INTERNAL_ERROR", body["error_code"])
	assert.Contains(t, buf.String(), "boom")
}
