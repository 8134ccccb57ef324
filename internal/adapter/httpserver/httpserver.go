package httpserver

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/imposter-project/imposter-http/internal/adapter"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// HTTPAdapter serves requests with net/http
type HTTPAdapter struct {
	configDir string
}

// NewAdapter creates a new HTTP server adapter instance
func NewAdapter(configDir string) adapter.Adapter {
	return &HTTPAdapter{configDir: configDir}
}

// Start begins listening for HTTP requests and handles them
func (a *HTTPAdapter) Start() {
	rt := adapter.InitialiseImposter(a.configDir)
	addr := ":" + rt.Config.ServerPort

	log := logger.Named("http")
	log.Info("server is listening", "addr", addr)
	if err := http.ListenAndServe(addr, NewHandler(rt)); err != nil {
		log.Error("error starting server", "addr", addr, "error", err)
	}
}

// NewHandler returns an http.Handler serving every request through rt
func NewHandler(rt *adapter.Runtime) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, err := NewRequestInput(r, rt.Config.MaxBodySize, rt.Config.TrustForwardedHeaders)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Errorf("failed to read request body - method:%s, path:%s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		out := rt.Process(in)
		if err := out.WriteTo(w); err != nil {
			logger.Warnf("failed to write response - method:%s, path:%s: %v", r.Method, r.URL.Path, err)
		}
	})
}

// NewRequestInput reads r into the form the snapshot builder expects.
// A maxBodySize of zero or less means no limit.
func NewRequestInput(r *http.Request, maxBodySize int64, trustForwarded bool) (exchange.RequestInput, error) {
	var data []byte
	if r.Body != nil {
		reader := io.Reader(r.Body)
		if maxBodySize > 0 {
			reader = http.MaxBytesReader(nil, r.Body, maxBodySize)
		}
		var err error
		if data, err = io.ReadAll(reader); err != nil {
			return exchange.RequestInput{}, err
		}
	}

	u := requestURL(r)
	abs := u
	forwardedFor := ""
	if trustForwarded {
		abs = adapter.ForwardedURL(u, r.Header.Get("X-Forwarded-Proto"), r.Header.Get("X-Forwarded-Host"))
		forwardedFor = r.Header.Get("X-Forwarded-For")
	}

	headers := r.Header.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	// net/http moves Host out of the header map
	if r.Host != "" {
		headers.Set("Host", r.Host)
	}

	return exchange.RequestInput{
		URL:         u,
		AbsoluteURL: abs,
		Method:      r.Method,
		ClientIP:    adapter.ClientIP(r.RemoteAddr, forwardedFor, trustForwarded),
		HTTPVersion: r.Proto,
		Body:        data,
		Headers:     headers,
		Cookies:     adapter.ParseCookies(r.Header.Values("Cookie")),
	}, nil
}

// requestURL rebuilds the full URL, which net/http only gives in path form
func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	if u.Host == "" {
		u.Host = r.Host
	}
	return &u
}
