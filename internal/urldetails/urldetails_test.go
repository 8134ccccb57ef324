package urldetails

import (
	"net/url"
	"testing"

	"github.com/imposter-project/imposter-http/internal/multivalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrMissingURL)

	u := mustParse(t, "http://localhost:8080/a")
	d, err := New(u, nil)
	require.NoError(t, err)
	assert.Equal(t, u.String(), d.AbsoluteURL.String())
	assert.NotSame(t, u, d.URL)
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "two segments", path: "/foo/bar", want: []string{"foo", "bar"}},
		{name: "root", path: "/", want: []string{}},
		{name: "empty", path: "", want: []string{}},
		{name: "trailing slash", path: "/foo/", want: []string{"foo", ""}},
		{name: "no leading slash", path: "foo/bar", want: []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.path)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetails_Paths(t *testing.T) {
	u := mustParse(t, "http://localhost:8080/api/caf%C3%A9/a%20b?x=1")
	abs := mustParse(t, "https://example.com/public/api/caf%C3%A9/a%20b?x=1")
	d, err := New(u, abs)
	require.NoError(t, err)

	assert.Equal(t, "/api/café/a b", d.Path())
	assert.Equal(t, []string{"api", "café", "a b"}, d.PathSegments())
	assert.Equal(t, "/public/api/café/a b", d.AbsolutePath())
	assert.Equal(t, []string{"public", "api", "café", "a b"}, d.AbsolutePathSegments())
}

func TestDetails_EmptyPath(t *testing.T) {
	d, err := New(mustParse(t, "http://localhost"), nil)
	require.NoError(t, err)
	assert.Equal(t, "/", d.Path())
	assert.Equal(t, []string{}, d.PathSegments())
}

func TestDetails_HostParts(t *testing.T) {
	tests := []struct {
		raw      string
		protocol string
		host     string
		port     int
		origin   string
	}{
		{raw: "http://localhost:8080/x", protocol: "http", host: "localhost", port: 8080, origin: "http://localhost:8080"},
		{raw: "https://example.com/x", protocol: "https", host: "example.com", port: 443, origin: "https://example.com:443"},
		{raw: "http://example.com", protocol: "http", host: "example.com", port: 80, origin: "http://example.com:80"},
		{raw: "http://[::1]:9000/", protocol: "http", host: "::1", port: 9000, origin: "http://::1:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, err := New(mustParse(t, tt.raw), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.protocol, d.Protocol())
			assert.Equal(t, tt.host, d.Host())
			assert.Equal(t, tt.port, d.Port())
			assert.Equal(t, tt.origin, d.Origin())
		})
	}
}

func TestDetails_Query(t *testing.T) {
	d, err := New(mustParse(t, "http://localhost/x?name=caf%C3%A9&tag=a,b"), nil)
	require.NoError(t, err)
	assert.Equal(t, "name=café&tag=a,b", d.RawQuery())

	q := d.Query()
	require.NotNil(t, q)
	assert.Equal(t, []string{"café"}, q["name"].Values())
	assert.Equal(t, []string{"a", "b"}, q["tag"].Values())

	d, err = New(mustParse(t, "http://localhost/x"), nil)
	require.NoError(t, err)
	assert.Nil(t, d.Query())
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", Unescape("a+b"))
	assert.Equal(t, "a b", Unescape("a%20b"))
	assert.Equal(t, "100% sure", Unescape("100%+sure"))
}

func listsToSlices(m map[string]multivalue.List) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = v.Values()
	}
	return out
}
