package query

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// XPath extracts the text of the first node selected by an XPath expression
func XPath(doc body.Descriptor, xPath string, namespaces map[string]string) (result string, success bool) {
	data, ok := xmlSource(doc)
	if !ok {
		return "", false
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		logger.Warnf("failed to parse XML data: %v", err)
		return "", false
	}

	if namespaces == nil {
		namespaces = make(map[string]string)
	}
	expr, err := xpath.CompileWithNS(xPath, namespaces)
	if err != nil {
		logger.Warnf("failed to compile XPath expression: %v", err)
		return "", false
	}

	node := xmlquery.QuerySelector(root, expr)
	if node == nil {
		// empty is a valid result
		return "", true
	}
	return node.InnerText(), true
}

// xmlSource prefers the decoded text, which is always UTF-8. A document
// with an XML declaration is passed in its encoded form so the declared
// charset still applies.
func xmlSource(doc body.Descriptor) ([]byte, bool) {
	if s, ok := doc.AsString(); ok && !strings.HasPrefix(strings.TrimSpace(s), "<?xml") {
		return []byte(s), true
	}
	return doc.AsBytes()
}
