package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// Config is the content of one config file
type Config struct {
	RequestMatcher `yaml:",inline"`

	// Echo responds with the inbound request snapshot as JSON
	Echo     bool      `yaml:"echo"`
	Response *Response `yaml:"response"`
}

// RequestMatcher restricts which requests a config applies to. Empty
// fields match anything.
type RequestMatcher struct {
	Method         string                    `yaml:"method"`
	Path           string                    `yaml:"path"`
	QueryParams    map[string]MatchCondition `yaml:"queryParams"`
	RequestHeaders map[string]MatchCondition `yaml:"requestHeaders"`
	RequestBody    *BodyMatchCondition       `yaml:"requestBody"`
}

// MatchCondition compares an actual value against Value using Operator
type MatchCondition struct {
	Value    string `yaml:"value"`
	Operator string `yaml:"operator"`
}

// UnmarshalYAML accepts either a bare value or a value/operator mapping
func (m *MatchCondition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Value = node.Value
		m.Operator = "EqualTo"
		return nil
	}
	type plain MatchCondition
	return node.Decode((*plain)(m))
}

func (m MatchCondition) Match(actualValue string) bool {
	switch m.Operator {
	case "EqualTo", "":
		return actualValue == m.Value
	case "NotEqualTo":
		return actualValue != m.Value
	case "Exists":
		return actualValue != ""
	case "NotExists":
		return actualValue == ""
	case "Contains":
		return strings.Contains(actualValue, m.Value)
	case "NotContains":
		return !strings.Contains(actualValue, m.Value)
	case "Matches":
		return matchesPattern(m.Value, actualValue)
	case "NotMatches":
		return !matchesPattern(m.Value, actualValue)
	default:
		return false
	}
}

func matchesPattern(pattern, value string) bool {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		logger.Warnf("invalid match pattern %q: %v", pattern, err)
		return false
	}
	matched, err := re.MatchString(value)
	return err == nil && matched
}

// BodyMatchCondition matches the request body, or the value selected from
// it by JSONPath or XPath
type BodyMatchCondition struct {
	MatchCondition `yaml:",inline"`
	JSONPath       string            `yaml:"jsonPath,omitempty"`
	XPath          string            `yaml:"xPath,omitempty"`
	XMLNamespaces  map[string]string `yaml:"xmlNamespaces"`
}

// UnmarshalYAML decodes the selector fields alongside value and operator.
// Without it the promoted MatchCondition decoder would drop them.
func (b *BodyMatchCondition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = BodyMatchCondition{MatchCondition: MatchCondition{Value: node.Value, Operator: "EqualTo"}}
		return nil
	}
	var fields struct {
		Value         string            `yaml:"value"`
		Operator      string            `yaml:"operator"`
		JSONPath      string            `yaml:"jsonPath"`
		XPath         string            `yaml:"xPath"`
		XMLNamespaces map[string]string `yaml:"xmlNamespaces"`
	}
	if err := node.Decode(&fields); err != nil {
		return err
	}
	*b = BodyMatchCondition{
		MatchCondition: MatchCondition{Value: fields.Value, Operator: fields.Operator},
		JSONPath:       fields.JSONPath,
		XPath:          fields.XPath,
		XMLNamespaces:  fields.XMLNamespaces,
	}
	return nil
}

// Response describes a fixed response. At most one of Content, JSON, Base64
// and File may be set.
type Response struct {
	StatusCode int                 `yaml:"statusCode"`
	Headers    exchange.HeaderList `yaml:"headers"`
	Content    string              `yaml:"content"`
	JSON       interface{}         `yaml:"json"`
	Base64     string              `yaml:"base64"`
	File       string              `yaml:"file"`
	Encoding   string              `yaml:"encoding"`
	Indent     bool                `yaml:"indent"`
}

var ErrMultipleBodies = errors.New("only one of content, json, base64 or file may be set")

// Validate checks the config is internally consistent
func (c *Config) Validate() error {
	if c.RequestBody != nil && c.RequestBody.JSONPath != "" && c.RequestBody.XPath != "" {
		return errors.New("requestBody may set jsonPath or xPath, not both")
	}
	if c.Response == nil {
		return nil
	}
	if code := c.Response.StatusCode; code != 0 && (code < 100 || code > 599) {
		return fmt.Errorf("statusCode %d is outside 100-599", code)
	}
	set := 0
	for _, present := range []bool{
		c.Response.Content != "",
		c.Response.JSON != nil,
		c.Response.Base64 != "",
		c.Response.File != "",
	} {
		if present {
			set++
		}
	}
	if set > 1 {
		return ErrMultipleBodies
	}
	if c.Response.Base64 != "" {
		if _, err := base64.StdEncoding.DecodeString(c.Response.Base64); err != nil {
			return fmt.Errorf("invalid base64 body: %w", err)
		}
	}
	return nil
}

// Description builds a fresh ResponseDescription from the configured response
func (r *Response) Description() (*exchange.ResponseDescription, error) {
	desc := exchange.NewResponseDescription()
	if r.StatusCode > 0 {
		desc.StatusCode = r.StatusCode
	}
	for _, h := range r.Headers {
		desc.Headers.Add(h.Name, h.Values.Values()...)
	}

	switch {
	case r.Content != "":
		desc.Body = body.NewText(r.Content, r.Encoding)
	case r.JSON != nil:
		desc.Body = body.NewJSONWithEncoding(r.JSON, r.Indent, r.Encoding)
	case r.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(r.Base64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 body: %w", err)
		}
		desc.Body = body.NewBytes(data)
	case r.File != "":
		desc.Body = body.NewFileRef(r.File)
	}
	return desc, nil
}
