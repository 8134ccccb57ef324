package query

import (
	"bytes"
	"encoding/json"

	"github.com/PaesslerAG/jsonpath"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// JSONPath extracts a value from a JSON body using a JSONPath expression.
// Numbers are returned as json.Number.
func JSONPath(doc body.Descriptor, jsonPathExpr string) (result interface{}, success bool) {
	jsonData, ok := doc.AsJSON()
	if !ok {
		raw, isText := doc.AsString()
		if !isText {
			logger.Debugf("body is not JSON - skipping JSONPath %s", jsonPathExpr)
			return nil, false
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		if err := dec.Decode(&jsonData); err != nil {
			logger.Warnf("failed to unmarshal JSON data: %v", err)
			return nil, false
		}
	}

	result, err := jsonpath.Get(jsonPathExpr, jsonData)
	if err != nil {
		logger.Warnf("failed to extract JSON path: %v", err)
		return nil, false
	}
	return result, true
}
