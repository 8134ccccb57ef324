package urldetails

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/imposter-project/imposter-http/internal/multivalue"
)

// ErrMissingURL is returned when no request URL is supplied
var ErrMissingURL = errors.New("request URL is required")

// Details pairs the URL the host received with the URL the client used.
// The two differ when the server sits behind a reverse proxy.
type Details struct {
	URL         *url.URL
	AbsoluteURL *url.URL
}

// New creates Details from the host URL and an optional externally-visible URL.
// When absolute is nil the host URL is used for both.
func New(u *url.URL, absolute *url.URL) (Details, error) {
	if u == nil {
		return Details{}, ErrMissingURL
	}
	if absolute == nil {
		absolute = u
	}
	return Details{URL: cloneURL(u), AbsoluteURL: cloneURL(absolute)}, nil
}

func cloneURL(u *url.URL) *url.URL {
	cp := *u
	return &cp
}

// Path returns the decoded path of the host URL
func (d Details) Path() string {
	return decodedPath(d.URL)
}

// AbsolutePath returns the decoded path of the externally-visible URL
func (d Details) AbsolutePath() string {
	return decodedPath(d.AbsoluteURL)
}

// PathSegments returns the segments of Path
func (d Details) PathSegments() []string {
	return Segments(d.Path())
}

// AbsolutePathSegments returns the segments of AbsolutePath
func (d Details) AbsolutePathSegments() []string {
	return Segments(d.AbsolutePath())
}

// RawQuery returns the percent-decoded query string, without the leading '?'
func (d Details) RawQuery() string {
	return Unescape(d.URL.RawQuery)
}

// Query parses the query string of the host URL
func (d Details) Query() map[string]multivalue.List {
	return ParseQuery(d.URL.RawQuery)
}

// Protocol returns the URL scheme, e.g. "http"
func (d Details) Protocol() string {
	return d.URL.Scheme
}

// Host returns the host name without port
func (d Details) Host() string {
	return d.URL.Hostname()
}

// Port returns the explicit port, or the scheme default
func (d Details) Port() int {
	if p := d.URL.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	switch strings.ToLower(d.URL.Scheme) {
	case "https", "wss":
		return 443
	default:
		return 80
	}
}

// Origin returns "scheme://host:port"
func (d Details) Origin() string {
	return d.Protocol() + "://" + d.Host() + ":" + strconv.Itoa(d.Port())
}

func decodedPath(u *url.URL) string {
	// url.URL.Path is already percent-decoded
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// Segments splits a decoded path on '/', dropping the leading empty element.
// An empty path or "/" yields an empty slice.
func Segments(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// Unescape percent-decodes s, treating '+' as a space. Malformed escapes are
// tolerated: the input is returned with only '+' substituted.
func Unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return decoded
}
