package body

import (
	"bytes"
	"encoding/json"
)

// Type identifies how a body is, or should be, interpreted
type Type int

const (
	TypeNone Type = iota
	TypeString
	TypeJSON
	TypeBytes
	TypeFile
	TypeFormURLEncoded
	TypeMultiPart
)

var typeNames = map[Type]string{
	TypeNone:           "None",
	TypeString:         "String",
	TypeJSON:           "Json",
	TypeBytes:          "Bytes",
	TypeFile:           "File",
	TypeFormURLEncoded: "FormUrlEncoded",
	TypeMultiPart:      "MultiPart",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Content is one of Text, JSON, Bytes or FileRef
type Content interface {
	Type() Type
	sealed()
}

// Text is a string body. Encoding names the charset used when the string is
// turned into bytes; empty means UTF-8 without a byte-order mark.
type Text struct {
	Value    string
	Encoding string
}

// JSON is a structured body serialised on output. Object keys whose value is
// nil are omitted when serialised.
type JSON struct {
	Value    any
	Indent   bool
	Encoding string

	// source is the text the value was parsed from, if it came off the wire
	source string
}

// Bytes is a raw body passed through unchanged
type Bytes struct {
	Value []byte
}

// FileRef is a body read from a file at write time
type FileRef struct {
	Path string
}

func (Text) Type() Type    { return TypeString }
func (JSON) Type() Type    { return TypeJSON }
func (Bytes) Type() Type   { return TypeBytes }
func (FileRef) Type() Type { return TypeFile }

func (Text) sealed()    {}
func (JSON) sealed()    {}
func (Bytes) sealed()   {}
func (FileRef) sealed() {}

// Descriptor holds at most one body variant. The zero value is an absent body.
type Descriptor struct {
	content     Content
	compression string
}

// New wraps content in a Descriptor; nil content is an absent body
func New(content Content) Descriptor {
	return Descriptor{content: content}
}

// NewText creates a text body with an optional charset
func NewText(value, encoding string) Descriptor {
	return New(Text{Value: value, Encoding: encoding})
}

// NewJSON creates a JSON body encoded as UTF-8
func NewJSON(value any, indent bool) Descriptor {
	return New(JSON{Value: value, Indent: indent})
}

// NewJSONWithEncoding creates a JSON body encoded with the given charset
func NewJSONWithEncoding(value any, indent bool, encoding string) Descriptor {
	return New(JSON{Value: value, Indent: indent, Encoding: encoding})
}

// NewBytes creates a raw body
func NewBytes(value []byte) Descriptor {
	return New(Bytes{Value: value})
}

// NewFileRef creates a body resolved from a file
func NewFileRef(path string) Descriptor {
	return New(FileRef{Path: path})
}

// Content returns the active variant, or nil when the body is absent.
// Byte slices and decoded wire JSON are returned as copies.
func (d Descriptor) Content() Content {
	switch c := d.content.(type) {
	case Bytes:
		return Bytes{Value: bytes.Clone(c.Value)}
	case JSON:
		if c.source != "" {
			if value, err := parseJSON(c.source); err == nil {
				c.Value = value
			}
		}
		return c
	default:
		return d.content
	}
}

// Type returns the detected type of the active variant
func (d Descriptor) Type() Type {
	if d.content == nil {
		return TypeNone
	}
	return d.content.Type()
}

// IsAbsent reports whether no body is set
func (d Descriptor) IsAbsent() bool {
	return d.content == nil
}

// Compression returns the content-encoding removed while reading the body
func (d Descriptor) Compression() string {
	return d.compression
}

// Encoding returns the charset of a Text or JSON body
func (d Descriptor) Encoding() string {
	switch c := d.content.(type) {
	case Text:
		return c.Encoding
	case JSON:
		return c.Encoding
	default:
		return ""
	}
}

// AsString returns the body as a string for Text and JSON bodies
func (d Descriptor) AsString() (string, bool) {
	switch c := d.content.(type) {
	case Text:
		return c.Value, true
	case JSON:
		if c.source != "" {
			return c.source, true
		}
		data, err := MarshalJSON(c.Value, c.Indent)
		if err != nil {
			return "", false
		}
		return string(data), true
	default:
		return "", false
	}
}

// AsJSON returns the structured value of a JSON body. A body read off the
// wire is decoded afresh on each call so callers cannot alter it.
func (d Descriptor) AsJSON() (any, bool) {
	c, ok := d.content.(JSON)
	if !ok {
		return nil, false
	}
	if c.source != "" {
		value, err := parseJSON(c.source)
		if err != nil {
			return nil, false
		}
		return value, true
	}
	return c.Value, true
}

// AsBytes returns a copy of the encoded bytes of a Text, JSON or Bytes body
func (d Descriptor) AsBytes() ([]byte, bool) {
	switch c := d.content.(type) {
	case Bytes:
		return bytes.Clone(c.Value), true
	case Text, JSON:
		s, ok := d.AsString()
		if !ok {
			return nil, false
		}
		data, err := Encode(s, d.Encoding())
		if err != nil {
			return nil, false
		}
		return data, true
	default:
		return nil, false
	}
}
