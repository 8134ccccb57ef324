package body

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        Type
	}{
		{contentType: "", want: TypeNone},
		{contentType: "application/json", want: TypeJSON},
		{contentType: "application/json; charset=utf-8", want: TypeJSON},
		{contentType: "application/problem+json", want: TypeJSON},
		{contentType: "APPLICATION/JSON", want: TypeJSON},
		{contentType: "text/plain", want: TypeString},
		{contentType: "application/soap+xml", want: TypeString},
		{contentType: "application/xml", want: TypeString},
		{contentType: "application/x-www-form-urlencoded", want: TypeFormURLEncoded},
		{contentType: "multipart/form-data; boundary=abc", want: TypeMultiPart},
		{contentType: "application/octet-stream", want: TypeBytes},
		{contentType: "image/png", want: TypeBytes},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeFromContentType(tt.contentType))
		})
	}
}

func TestDetect(t *testing.T) {
	t.Run("empty body is absent", func(t *testing.T) {
		assert.True(t, Detect(nil, "application/json", "", 0).IsAbsent())
		assert.True(t, Detect([]byte{}, "", "", 0).IsAbsent())
	})

	t.Run("json object without content type", func(t *testing.T) {
		d := Detect([]byte(`{"name":"x","n":1.50}`), "", "", 0)
		require.Equal(t, TypeJSON, d.Type())

		v, ok := d.AsJSON()
		require.True(t, ok)
		obj := v.(map[string]any)
		assert.Equal(t, "x", obj["name"])

		s, ok := d.AsString()
		require.True(t, ok)
		assert.Equal(t, `{"name":"x","n":1.50}`, s, "original text is kept")
	})

	t.Run("json scalar only with json content type", func(t *testing.T) {
		assert.Equal(t, TypeJSON, Detect([]byte(`42`), "application/json", "", 0).Type())
		assert.Equal(t, TypeString, Detect([]byte(`42`), "text/plain", "", 0).Type())
	})

	t.Run("invalid json declared as json is text", func(t *testing.T) {
		d := Detect([]byte(`{"broken":`), "application/json", "", 0)
		assert.Equal(t, TypeString, d.Type())
	})

	t.Run("trailing data is not json", func(t *testing.T) {
		d := Detect([]byte(`{"a":1} trailing`), "", "", 0)
		assert.Equal(t, TypeString, d.Type())
	})

	t.Run("plain text", func(t *testing.T) {
		d := Detect([]byte("hello"), "text/plain", "", 0)
		assert.Equal(t, TypeString, d.Type())
		s, _ := d.AsString()
		assert.Equal(t, "hello", s)
	})

	t.Run("binary", func(t *testing.T) {
		raw := []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0xFF}
		d := Detect(raw, "image/png", "", 0)
		assert.Equal(t, TypeBytes, d.Type())
		b, ok := d.AsBytes()
		require.True(t, ok)
		assert.Equal(t, raw, b)
		_, ok = d.AsString()
		assert.False(t, ok)
	})

	t.Run("charset decoded", func(t *testing.T) {
		d := Detect([]byte{'c', 'a', 'f', 0xE9}, "text/plain; charset=iso-8859-1", "", 0)
		require.Equal(t, TypeString, d.Type())
		s, _ := d.AsString()
		assert.Equal(t, "café", s)
		assert.Equal(t, "iso-8859-1", d.Encoding())

		b, ok := d.AsBytes()
		require.True(t, ok)
		assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, b)
	})

	t.Run("unknown charset falls back to utf-8", func(t *testing.T) {
		d := Detect([]byte("plain"), "text/plain; charset=klingon", "", 0)
		require.Equal(t, TypeString, d.Type())
		assert.Equal(t, "", d.Encoding())
	})
}

func TestDetect_Compression(t *testing.T) {
	payload := []byte(`{"compressed":true}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		raw      []byte
		encoding string
	}{
		{name: "gzip", raw: gz.Bytes(), encoding: "gzip"},
		{name: "deflate", raw: zl.Bytes(), encoding: "deflate"},
		{name: "brotli", raw: br.Bytes(), encoding: "br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detect(tt.raw, "application/json", tt.encoding, 0)
			assert.Equal(t, TypeJSON, d.Type())
			assert.Equal(t, tt.encoding, d.Compression())
			s, _ := d.AsString()
			assert.Equal(t, string(payload), s)
		})
	}

	t.Run("corrupt data kept raw", func(t *testing.T) {
		d := Detect([]byte("not gzip"), "text/plain", "gzip", 0)
		assert.Equal(t, TypeString, d.Type())
		assert.Equal(t, "", d.Compression())
		s, _ := d.AsString()
		assert.Equal(t, "not gzip", s)
	})
}

func TestDetect_DecompressedSizeLimit(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(make([]byte, 4096))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	t.Run("within limit", func(t *testing.T) {
		d := Detect(gz.Bytes(), "application/octet-stream", "gzip", 4096)
		assert.Equal(t, "gzip", d.Compression())
		b, ok := d.AsBytes()
		require.True(t, ok)
		assert.Len(t, b, 4096)
	})

	t.Run("over limit kept compressed", func(t *testing.T) {
		d := Detect(gz.Bytes(), "application/octet-stream", "gzip", 1024)
		assert.Equal(t, "", d.Compression())
		b, ok := d.AsBytes()
		require.True(t, ok)
		assert.Equal(t, gz.Bytes(), b)
	})
}

func TestDetect_OwnsItsData(t *testing.T) {
	raw := []byte{0x00, 0xfe, 0x01}
	d := Detect(raw, "application/octet-stream", "", 0)
	raw[0] = 0xff

	b, ok := d.AsBytes()
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0xfe, 0x01}, b)

	b[1] = 0x00
	again, _ := d.AsBytes()
	assert.Equal(t, []byte{0x00, 0xfe, 0x01}, again)

	content := d.Content().(Bytes)
	content.Value[2] = 0x09
	again, _ = d.AsBytes()
	assert.Equal(t, []byte{0x00, 0xfe, 0x01}, again)
}

func TestDetect_JSONIsNotShared(t *testing.T) {
	d := Detect([]byte(`{"a":1}`), "application/json", "", 0)

	v, ok := d.AsJSON()
	require.True(t, ok)
	v.(map[string]any)["a"] = "changed"

	again, _ := d.AsJSON()
	assert.Equal(t, map[string]any{"a": json.Number("1")}, again)
	s, _ := d.AsString()
	assert.Equal(t, `{"a":1}`, s)
}
