package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/imposter-project/imposter-http/internal/adapter"
	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/handler"
	"github.com/imposter-project/imposter-http/internal/multivalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestInput(t *testing.T) {
	req := httptest.NewRequest("POST", "http://internal:8080/api/items?tag=a,b", strings.NewReader(`{"id":1}`))
	req.RemoteAddr = "10.0.0.1:4321"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "api.example.com")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Add("Cookie", "session=abc; theme=dark")
	req.Header.Add("Cookie", "session=later")

	t.Run("untrusted forwarding", func(t *testing.T) {
		in, err := NewRequestInput(req, 0, false)
		require.NoError(t, err)
		assert.Equal(t, "http://internal:8080/api/items?tag=a,b", in.URL.String())
		assert.Same(t, in.URL, in.AbsoluteURL)
		assert.Equal(t, "10.0.0.1", in.ClientIP)
		assert.Equal(t, "HTTP/1.1", in.HTTPVersion)
		assert.Equal(t, []byte(`{"id":1}`), in.Body)
		assert.Equal(t, []string{"internal:8080"}, in.Headers["Host"])
		assert.Equal(t, map[string]string{"session": "abc", "theme": "dark"}, in.Cookies)
	})

	t.Run("trusted forwarding", func(t *testing.T) {
		req := req.Clone(req.Context())
		req.Body = http.NoBody
		in, err := NewRequestInput(req, 0, true)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/api/items?tag=a,b", in.AbsoluteURL.String())
		assert.Equal(t, "203.0.113.9", in.ClientIP)
	})
}

func TestNewRequestInput_BodyLimit(t *testing.T) {
	req := httptest.NewRequest("POST", "/upload", strings.NewReader("0123456789"))
	_, err := NewRequestInput(req, 4, false)
	assert.Error(t, err)

	req = httptest.NewRequest("POST", "/upload", strings.NewReader("0123"))
	in, err := NewRequestInput(req, 4, false)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(in.Body))
}

func TestHandler(t *testing.T) {
	rt := adapter.NewRuntime(&config.ImposterConfig{MaxBodySize: 8}, handler.FromConfigs([]config.Config{
		{
			RequestMatcher: config.RequestMatcher{Path: "/hello"},
			Response: &config.Response{
				StatusCode: http.StatusCreated,
				Headers: exchange.HeaderList{
					{Name: "X-Test", Values: multivalue.New("1", "2")},
				},
				Content: "hi",
			},
		},
		{
			RequestMatcher: config.RequestMatcher{Path: "/echo"},
			Echo:           true,
		},
	}))
	h := NewHandler(rt)

	t.Run("static", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/hello", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "hi", w.Body.String())
		assert.Equal(t, []string{"1", "2"}, w.Header().Values("X-Test"))
	})

	t.Run("echo", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/echo?q=1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `"path": "/echo"`)
		assert.Contains(t, w.Body.String(), `"clientIP": "192.0.2.1"`)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/hello", strings.NewReader("far too long")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
