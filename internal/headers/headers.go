package headers

import (
	"net/http"

	"golang.org/x/net/http/httpguts"

	"github.com/imposter-project/imposter-http/internal/multivalue"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

const ContentType = "Content-Type"

// Action writes a response header that needs special handling onto the host
// headers
type Action func(dst http.Header, values multivalue.List)

// fixups is keyed by canonical header name and never modified after init
var fixups = map[string]Action{
	ContentType: setFirst(ContentType),
}

// restricted headers are managed by the host server per connection and must
// not be copied from a response description
var restricted = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Proxy-Connection":  true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

// setFirst sets the header to the first value only; multiple values are not
// supported for single-valued headers
func setFirst(name string) Action {
	return func(dst http.Header, values multivalue.List) {
		first, ok := values.First()
		if !ok {
			return
		}
		if !httpguts.ValidHeaderFieldValue(first) {
			logger.Warnf("dropping invalid value for response header %s", name)
			return
		}
		dst.Set(name, first)
	}
}

// Fixup returns the special handling for a header name, if any
func Fixup(name string) (Action, bool) {
	action, ok := fixups[http.CanonicalHeaderKey(name)]
	return action, ok
}

// IsRestricted reports whether a header must never be forwarded to the host
func IsRestricted(name string) bool {
	return restricted[http.CanonicalHeaderKey(name)]
}

// Apply writes one response header onto dst. Fixups take precedence over the
// blocklist; other headers have all their values appended in order.
func Apply(dst http.Header, name string, values multivalue.List) {
	if !httpguts.ValidHeaderFieldName(name) {
		logger.Warnf("dropping response header with invalid name %q", name)
		return
	}
	if action, ok := Fixup(name); ok {
		action(dst, values)
		return
	}
	if IsRestricted(name) {
		logger.Tracef("dropping host-managed response header %s", name)
		return
	}
	for _, v := range values.Values() {
		if !httpguts.ValidHeaderFieldValue(v) {
			logger.Warnf("dropping invalid value for response header %s", name)
			continue
		}
		dst.Add(name, v)
	}
}
