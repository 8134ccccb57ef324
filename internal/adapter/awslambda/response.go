package awslambda

import (
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imposter-project/imposter-http/internal/response"
)

// encodeBody returns the body as a string, base64 encoding anything that is
// not valid UTF-8
func encodeBody(data []byte) (string, bool) {
	if utf8.Valid(data) {
		return string(data), false
	}
	return base64.StdEncoding.EncodeToString(data), true
}

func toAPIGatewayResponse(out *response.Output) events.APIGatewayProxyResponse {
	body, isBase64 := encodeBody(out.Body)
	multi := make(map[string][]string, len(out.Header))
	for k, v := range out.Header {
		multi[k] = append([]string(nil), v...)
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        out.StatusCode,
		MultiValueHeaders: multi,
		Body:              body,
		IsBase64Encoded:   isBase64,
	}
}

// toFunctionURLResponse joins repeated headers with commas, except
// Set-Cookie which Function URLs take as a separate list
func toFunctionURLResponse(out *response.Output) events.LambdaFunctionURLResponse {
	body, isBase64 := encodeBody(out.Body)
	headers := make(map[string]string, len(out.Header))
	var cookies []string
	for k, v := range out.Header {
		if http.CanonicalHeaderKey(k) == "Set-Cookie" {
			cookies = append(cookies, v...)
			continue
		}
		headers[k] = strings.Join(v, ",")
	}
	return events.LambdaFunctionURLResponse{
		StatusCode:      out.StatusCode,
		Headers:         headers,
		Body:            body,
		IsBase64Encoded: isBase64,
		Cookies:         cookies,
	}
}
