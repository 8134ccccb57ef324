package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/headers"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

var ErrInvalidStatusCode = errors.New("invalid status code")

// Output is a fully resolved response, ready to be written to a host
type Output struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Materializer turns a ResponseDescription into an Output
type Materializer struct {
	files FileReader
}

// NewMaterializer creates a Materializer that resolves file bodies using files
func NewMaterializer(files FileReader) *Materializer {
	return &Materializer{files: files}
}

// Materialize resolves the body and applies the header policy. The body is
// resolved before anything else so a failure leaves nothing half-built.
func (m *Materializer) Materialize(desc *exchange.ResponseDescription) (*Output, error) {
	if desc == nil {
		return nil, errors.New("no response description")
	}

	status := desc.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if status < 100 || status > 999 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, status)
	}

	data, err := m.resolveBody(desc.Body)
	if err != nil {
		return nil, err
	}

	out := &Output{
		StatusCode: status,
		Header:     make(http.Header, len(desc.Headers)),
		Body:       data,
	}
	for _, h := range desc.Headers {
		headers.Apply(out.Header, h.Name, h.Values)
	}

	if logger.IsTraceEnabled() {
		logger.Tracef("materialized response - status:%d, headers:%v, length:%d", out.StatusCode, out.Header, len(out.Body))
	}
	return out, nil
}

func (m *Materializer) resolveBody(desc body.Descriptor) ([]byte, error) {
	switch c := desc.Content().(type) {
	case nil:
		return nil, nil
	case body.Text:
		data, err := body.Encode(c.Value, c.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding text body: %w", err)
		}
		return data, nil
	case body.JSON:
		s, err := body.MarshalJSON(c.Value, c.Indent)
		if err != nil {
			return nil, fmt.Errorf("serialising JSON body: %w", err)
		}
		data, err := body.Encode(string(s), c.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding JSON body: %w", err)
		}
		return data, nil
	case body.Bytes:
		if c.Value == nil {
			return []byte{}, nil
		}
		return c.Value, nil
	case body.FileRef:
		if m.files == nil {
			return nil, fmt.Errorf("%w: no file reader configured", ErrInvalidFileRef)
		}
		return m.files.ReadFile(c.Path)
	default:
		return nil, fmt.Errorf("unsupported body content %T", c)
	}
}

// WriteTo writes the status, headers and body to w
func (o *Output) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range o.Header {
		dst[name] = append([]string(nil), values...)
	}
	w.WriteHeader(o.StatusCode)
	if len(o.Body) == 0 {
		return nil
	}
	_, err := w.Write(o.Body)
	return err
}
