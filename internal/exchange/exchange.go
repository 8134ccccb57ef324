package exchange

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/multivalue"
	"github.com/imposter-project/imposter-http/internal/urldetails"
	"github.com/imposter-project/imposter-http/pkg/utils"
)

var (
	ErrMissingURL      = urldetails.ErrMissingURL
	ErrMissingMethod   = errors.New("request method is required")
	ErrMissingClientIP = errors.New("client IP is required")
)

// RequestInput is what a host adapter supplies to build a RequestSnapshot
type RequestInput struct {
	// URL is the URL as received by the host
	URL *url.URL

	// AbsoluteURL is the URL as seen by the client, if it differs from URL
	AbsoluteURL *url.URL

	Method      string
	ClientIP    string
	HTTPVersion string
	Body        []byte
	Headers     map[string][]string
	Cookies     map[string]string

	// MaxBodySize bounds the body after decompression; zero uses the body
	// package default
	MaxBodySize int64
}

// RequestSnapshot is an immutable view of one inbound request.
// All accessors return copies; the snapshot is safe to share between goroutines.
type RequestSnapshot struct {
	id          string
	timestamp   time.Time
	clientIP    string
	method      string
	httpVersion string

	details     urldetails.Details
	rawQuery    string
	query       map[string]multivalue.List
	headers     map[string]multivalue.List
	cookies     map[string]string
	body        body.Descriptor
	contentType body.Type
}

// NewRequestSnapshot validates the input and builds a snapshot from it
func NewRequestSnapshot(in RequestInput) (*RequestSnapshot, error) {
	details, err := urldetails.New(in.URL, in.AbsoluteURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, ErrMissingMethod
	}
	if strings.TrimSpace(in.ClientIP) == "" {
		return nil, ErrMissingClientIP
	}

	headers := canonicalHeaders(in.Headers)
	contentType := firstHeader(headers, "Content-Type")

	cookies := make(map[string]string, len(in.Cookies))
	for k, v := range in.Cookies {
		cookies[k] = v
	}

	return &RequestSnapshot{
		id:          uuid.NewString(),
		timestamp:   time.Now().UTC(),
		clientIP:    in.ClientIP,
		method:      strings.ToUpper(in.Method),
		httpVersion: in.HTTPVersion,
		details:     details,
		rawQuery:    details.RawQuery(),
		query:       details.Query(),
		headers:     headers,
		cookies:     cookies,
		body:        body.Detect(in.Body, contentType, firstHeader(headers, "Content-Encoding"), in.MaxBodySize),
		contentType: body.TypeFromContentType(contentType),
	}, nil
}

func canonicalHeaders(src map[string][]string) map[string]multivalue.List {
	acc := make(map[string][]string, len(src))
	for name, values := range src {
		key := http.CanonicalHeaderKey(name)
		acc[key] = append(acc[key], values...)
	}
	headers := make(map[string]multivalue.List, len(acc))
	for name, values := range acc {
		headers[name] = multivalue.New(values...)
	}
	return headers
}

func firstHeader(headers map[string]multivalue.List, name string) string {
	v, _ := headers[name].First()
	return v
}

func (r *RequestSnapshot) ID() string { return r.id }
func (r *RequestSnapshot) Timestamp() time.Time { return r.timestamp }
func (r *RequestSnapshot) ClientIP() string { return r.clientIP }
func (r *RequestSnapshot) Method() string { return r.method }
func (r *RequestSnapshot) HTTPVersion() string { return r.httpVersion }
func (r *RequestSnapshot) URL() string { return r.details.URL.String() }
func (r *RequestSnapshot) AbsoluteURL() string { return r.details.AbsoluteURL.String() }
func (r *RequestSnapshot) Path() string { return r.details.Path() }
func (r *RequestSnapshot) AbsolutePath() string { return r.details.AbsolutePath() }
func (r *RequestSnapshot) RawQuery() string { return r.rawQuery }
func (r *RequestSnapshot) Protocol() string { return r.details.Protocol() }
func (r *RequestSnapshot) Host() string { return r.details.Host() }
func (r *RequestSnapshot) Port() int { return r.details.Port() }
func (r *RequestSnapshot) Origin() string { return r.details.Origin() }
func (r *RequestSnapshot) Body() body.Descriptor { return r.body }
func (r *RequestSnapshot) DetectedBodyType() body.Type {
	return r.body.Type()
}

// DetectedBodyTypeFromContentType classifies the body from the Content-Type
// header alone; it may disagree with DetectedBodyType
func (r *RequestSnapshot) DetectedBodyTypeFromContentType() body.Type {
	return r.contentType
}

// DetectedCompression is the content-encoding removed from the body
func (r *RequestSnapshot) DetectedCompression() string {
	return r.body.Compression()
}

// PathSegments returns the decoded path split on '/'
func (r *RequestSnapshot) PathSegments() []string {
	return r.details.PathSegments()
}

// AbsolutePathSegments returns the decoded absolute path split on '/'
func (r *RequestSnapshot) AbsolutePathSegments() []string {
	return r.details.AbsolutePathSegments()
}

// Query returns the parsed query, or nil when the request had no query string
func (r *RequestSnapshot) Query() map[string]multivalue.List {
	if r.query == nil {
		return nil
	}
	return copyLists(r.query)
}

// GetParameter looks up a query parameter. With ignoreCase an exact match is
// preferred, then the first case-insensitive match in key order.
func (r *RequestSnapshot) GetParameter(key string, ignoreCase bool) (multivalue.List, bool) {
	if r.query == nil {
		return multivalue.List{}, false
	}
	if v, ok := r.query[key]; ok {
		return v, true
	}
	if !ignoreCase {
		return multivalue.List{}, false
	}
	for _, k := range utils.SortedKeys(r.query) {
		if strings.EqualFold(k, key) {
			return r.query[k], true
		}
	}
	return multivalue.List{}, false
}

// Headers returns all request headers keyed by canonical name
func (r *RequestSnapshot) Headers() map[string]multivalue.List {
	return copyLists(r.headers)
}

// Header looks up a header case-insensitively
func (r *RequestSnapshot) Header(name string) (multivalue.List, bool) {
	v, ok := r.headers[http.CanonicalHeaderKey(name)]
	return v, ok
}

// Cookies returns the request cookies by name
func (r *RequestSnapshot) Cookies() map[string]string {
	cp := make(map[string]string, len(r.cookies))
	for k, v := range r.cookies {
		cp[k] = v
	}
	return cp
}

// BodyAsString returns the body as a string when it is text or JSON
func (r *RequestSnapshot) BodyAsString() (string, bool) {
	return r.body.AsString()
}

// BodyAsJSON returns the parsed body when it is JSON
func (r *RequestSnapshot) BodyAsJSON() (any, bool) {
	return r.body.AsJSON()
}

// BodyAsBytes returns the body bytes
func (r *RequestSnapshot) BodyAsBytes() ([]byte, bool) {
	return r.body.AsBytes()
}

// FormValues parses a form-urlencoded body; nil for other content types
func (r *RequestSnapshot) FormValues() map[string]multivalue.List {
	if r.contentType != body.TypeFormURLEncoded {
		return nil
	}
	s, ok := r.body.AsString()
	if !ok {
		return nil
	}
	return urldetails.ParseForm(s)
}

type snapshotJSON struct {
	ID                              string                     `json:"id"`
	Timestamp                       time.Time                  `json:"timestamp"`
	ClientIP                        string                     `json:"clientIP"`
	Method                          string                     `json:"method"`
	HTTPVersion                     string                     `json:"httpVersion,omitempty"`
	URL                             string                     `json:"url"`
	AbsoluteURL                     string                     `json:"absoluteUrl"`
	Path                            string                     `json:"path"`
	AbsolutePath                    string                     `json:"absolutePath"`
	PathSegments                    []string                   `json:"pathSegments"`
	AbsolutePathSegments            []string                   `json:"absolutePathSegments"`
	RawQuery                        string                     `json:"rawQuery,omitempty"`
	Query                           map[string]multivalue.List `json:"query"`
	Headers                         map[string]multivalue.List `json:"headers"`
	Cookies                         map[string]string          `json:"cookies"`
	Body                            *string                    `json:"body,omitempty"`
	BodyAsJSON                      any                        `json:"bodyAsJson,omitempty"`
	BodyAsBytes                     []byte                     `json:"bodyAsBytes,omitempty"`
	DetectedBodyType                body.Type                  `json:"detectedBodyType"`
	DetectedBodyTypeFromContentType body.Type                  `json:"detectedBodyTypeFromContentType"`
	DetectedCompression             string                     `json:"detectedCompression,omitempty"`
	Host                            string                     `json:"host"`
	Protocol                        string                     `json:"protocol"`
	Port                            int                        `json:"port"`
	Origin                          string                     `json:"origin"`
}

// MarshalJSON renders the snapshot for logging and echo responses
func (r *RequestSnapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		ID:                              r.id,
		Timestamp:                       r.timestamp,
		ClientIP:                        r.clientIP,
		Method:                          r.method,
		HTTPVersion:                     r.httpVersion,
		URL:                             r.URL(),
		AbsoluteURL:                     r.AbsoluteURL(),
		Path:                            r.Path(),
		AbsolutePath:                    r.AbsolutePath(),
		PathSegments:                    r.PathSegments(),
		AbsolutePathSegments:            r.AbsolutePathSegments(),
		RawQuery:                        r.rawQuery,
		Query:                           r.query,
		Headers:                         r.headers,
		Cookies:                         r.cookies,
		DetectedBodyType:                r.body.Type(),
		DetectedBodyTypeFromContentType: r.contentType,
		DetectedCompression:             r.body.Compression(),
		Host:                            r.Host(),
		Protocol:                        r.Protocol(),
		Port:                            r.Port(),
		Origin:                          r.Origin(),
	}
	if s, ok := r.body.AsString(); ok {
		out.Body = &s
	}
	if v, ok := r.body.AsJSON(); ok {
		out.BodyAsJSON = v
	}
	if r.body.Type() == body.TypeBytes {
		out.BodyAsBytes, _ = r.body.AsBytes()
	}
	return json.Marshal(out)
}

func copyLists(src map[string]multivalue.List) map[string]multivalue.List {
	cp := make(map[string]multivalue.List, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp
}
