package body

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/imposter-project/imposter-http/pkg/logger"
)

// TypeFromContentType classifies a body purely from its Content-Type header,
// independently of what the body bytes look like
func TypeFromContentType(contentType string) Type {
	if strings.TrimSpace(contentType) == "" {
		return TypeNone
	}
	mediaType := mediaTypeOf(contentType)

	switch {
	case mediaType == "application/json",
		strings.HasSuffix(mediaType, "+json"),
		strings.HasSuffix(mediaType, "/json"):
		return TypeJSON
	case mediaType == "application/x-www-form-urlencoded":
		return TypeFormURLEncoded
	case strings.HasPrefix(mediaType, "multipart/"):
		return TypeMultiPart
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/xml",
		strings.HasSuffix(mediaType, "+xml"),
		mediaType == "application/javascript",
		mediaType == "application/x-javascript",
		mediaType == "application/graphql":
		return TypeString
	default:
		return TypeBytes
	}
}

// DefaultMaxSize caps decompressed bodies when no limit is given
const DefaultMaxSize = 10 * 1024 * 1024

var errTooLarge = errors.New("decompressed body exceeds size limit")

// Detect classifies a raw request body. The body is first decompressed
// according to contentEncoding, then decoded with the charset named in
// contentType. Bodies that parse as JSON become JSON, other text becomes
// Text and anything else Bytes. An empty body is absent.
//
// maxSize bounds the decompressed size; zero or less means DefaultMaxSize.
// A body that would inflate past it is kept in its compressed form.
func Detect(raw []byte, contentType, contentEncoding string, maxSize int64) Descriptor {
	if len(raw) == 0 {
		return Descriptor{}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	data, compression := decompress(raw, contentEncoding, maxSize)
	charset := charsetOf(contentType)
	if !isUTF8(charset) {
		if _, err := lookupEncoding(charset); err != nil {
			logger.Debugf("ignoring unknown charset %q", charset)
			charset = ""
		}
	}

	text, ok := asText(data, charset)
	if !ok {
		return Descriptor{content: Bytes{Value: bytes.Clone(data)}, compression: compression}
	}

	fromHeader := TypeFromContentType(contentType)
	if fromHeader == TypeJSON || looksLikeJSON(text) {
		if value, err := parseJSON(text); err == nil {
			return Descriptor{
				content:     JSON{Value: value, Encoding: charset, source: text},
				compression: compression,
			}
		} else if fromHeader == TypeJSON {
			logger.Debugf("body declared as JSON could not be parsed, treating as text: %v", err)
		}
	}
	return Descriptor{content: Text{Value: text, Encoding: charset}, compression: compression}
}

func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func asText(data []byte, charset string) (string, bool) {
	text, err := Decode(data, charset)
	if err != nil {
		logger.Debugf("body could not be decoded as %q: %v", charset, err)
		return "", false
	}
	if !utf8.ValidString(text) || strings.ContainsRune(text, 0) {
		return "", false
	}
	return text, true
}

func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value, nil
}

// decompress removes the content-encodings applied to raw, last applied
// first. On failure the original bytes are returned untouched.
func decompress(raw []byte, contentEncoding string, maxSize int64) ([]byte, string) {
	codings := strings.Split(strings.ToLower(contentEncoding), ",")
	data := raw
	var applied []string
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.TrimSpace(codings[i])
		if coding == "" || coding == "identity" {
			continue
		}
		out, err := decode(data, coding, maxSize)
		if err != nil {
			logger.Warnf("failed to decompress %s body, using raw bytes: %v", coding, err)
			return raw, ""
		}
		data = out
		applied = append(applied, coding)
	}
	return data, strings.Join(applied, ",")
}

func decode(data []byte, coding string, maxSize int64) ([]byte, error) {
	switch coding {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return readLimited(r, maxSize)
	case "deflate":
		// some clients send raw deflate rather than zlib-wrapped data
		if r, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer r.Close()
			return readLimited(r, maxSize)
		}
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return readLimited(r, maxSize)
	case "br":
		return readLimited(brotli.NewReader(bytes.NewReader(data)), maxSize)
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", coding)
	}
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, errTooLarge
	}
	return data, nil
}
