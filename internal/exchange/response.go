package exchange

import (
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/multivalue"
)

// Header is one named response header with its values
type Header struct {
	Name   string
	Values multivalue.List
}

// HeaderList holds response headers in the order they should be written.
// Names are unique, compared case-insensitively.
type HeaderList []Header

// Get returns the values for name
func (h HeaderList) Get(name string) (multivalue.List, bool) {
	if i := h.index(name); i >= 0 {
		return h[i].Values, true
	}
	return multivalue.List{}, false
}

// Add appends values to the header, creating it at the end if needed
func (h *HeaderList) Add(name string, values ...string) {
	if i := h.index(name); i >= 0 {
		(*h)[i].Values = (*h)[i].Values.Append(values...)
		return
	}
	*h = append(*h, Header{Name: name, Values: multivalue.New(values...)})
}

// Set replaces the values of the header, keeping its position
func (h *HeaderList) Set(name string, values ...string) {
	if i := h.index(name); i >= 0 {
		(*h)[i].Values = multivalue.New(values...)
		return
	}
	*h = append(*h, Header{Name: name, Values: multivalue.New(values...)})
}

func (h HeaderList) index(name string) int {
	for i, header := range h {
		if strings.EqualFold(header.Name, name) {
			return i
		}
	}
	return -1
}

// UnmarshalYAML decodes a mapping of name to value (or list of values),
// keeping the order of the document
func (h *HeaderList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: headers must be a mapping", node.Line)
	}
	list := make(HeaderList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var values multivalue.List
		if err := node.Content[i+1].Decode(&values); err != nil {
			return err
		}
		list.Add(node.Content[i].Value, values.Values()...)
	}
	*h = list
	return nil
}

// ResponseDescription is the logical response produced for a request,
// consumed once when it is written to the host
type ResponseDescription struct {
	StatusCode int
	Headers    HeaderList
	Body       body.Descriptor
}

// NewResponseDescription creates an empty 200 response
func NewResponseDescription() *ResponseDescription {
	return &ResponseDescription{
		StatusCode: http.StatusOK,
	}
}
