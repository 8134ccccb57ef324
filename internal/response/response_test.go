package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFileReader map[string][]byte

func (s stubFileReader) ReadFile(path string) ([]byte, error) {
	if data, ok := s[path]; ok {
		return data, nil
	}
	return nil, ErrFileNotFound
}

func TestMaterialize_Bodies(t *testing.T) {
	m := NewMaterializer(stubFileReader{"data.bin": {0x01, 0x02}})

	tests := []struct {
		name string
		body body.Descriptor
		want []byte
	}{
		{name: "absent", body: body.Descriptor{}, want: nil},
		{name: "utf-8 text", body: body.NewText("héllo", ""), want: []byte("héllo")},
		{name: "latin-1 text", body: body.NewText("é", "ISO-8859-1"), want: []byte{0xe9}},
		{name: "json compact", body: body.NewJSON(map[string]any{"a": 1, "b": nil}, false), want: []byte(`{"a":1}`)},
		{name: "json indented", body: body.NewJSON(map[string]any{"a": "<x>"}, true), want: []byte("{\n  \"a\": \"<x>\"\n}")},
		{name: "json null", body: body.NewJSON(nil, false), want: []byte("null")},
		{name: "bytes", body: body.NewBytes([]byte{0xff, 0x00}), want: []byte{0xff, 0x00}},
		{name: "empty bytes", body: body.NewBytes(nil), want: []byte{}},
		{name: "file", body: body.NewFileRef("data.bin"), want: []byte{0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := exchange.NewResponseDescription()
			desc.Body = tt.body
			out, err := m.Materialize(desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Body)
		})
	}
}

func TestMaterialize_StatusCode(t *testing.T) {
	m := NewMaterializer(nil)

	out, err := m.Materialize(&exchange.ResponseDescription{StatusCode: 0})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)

	out, err = m.Materialize(&exchange.ResponseDescription{StatusCode: http.StatusTeapot})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, out.StatusCode)

	for _, code := range []int{42, -1, 1000} {
		out, err = m.Materialize(&exchange.ResponseDescription{StatusCode: code, Body: body.NewText("x", "")})
		assert.ErrorIs(t, err, ErrInvalidStatusCode, "status %d", code)
		assert.Nil(t, out)
	}
}

func TestMaterialize_Headers(t *testing.T) {
	desc := exchange.NewResponseDescription()
	desc.Headers.Add("Content-Type", "application/json", "text/plain")
	desc.Headers.Add("Set-Cookie", "a=1", "b=2")
	desc.Headers.Add("Transfer-Encoding", "chunked")
	desc.Headers.Add("X-Empty")

	out, err := NewMaterializer(nil).Materialize(desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"application/json"}, out.Header.Values("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, out.Header.Values("Set-Cookie"))
	assert.Empty(t, out.Header.Values("Transfer-Encoding"))
}

func TestMaterialize_FileErrors(t *testing.T) {
	desc := exchange.NewResponseDescription()
	desc.Body = body.NewFileRef("missing.txt")

	_, err := NewMaterializer(stubFileReader{}).Materialize(desc)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = NewMaterializer(nil).Materialize(desc)
	assert.ErrorIs(t, err, ErrInvalidFileRef)

	_, err = NewMaterializer(nil).Materialize(nil)
	assert.Error(t, err)
}

func TestOutput_WriteTo(t *testing.T) {
	desc := exchange.NewResponseDescription()
	desc.StatusCode = http.StatusCreated
	desc.Headers.Add("X-Test", "1", "2")
	desc.Body = body.NewText("created", "")

	out, err := NewMaterializer(nil).Materialize(desc)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	require.NoError(t, out.WriteTo(w))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"1", "2"}, w.Header().Values("X-Test"))
	assert.Equal(t, "created", w.Body.String())
}
