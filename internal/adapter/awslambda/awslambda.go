package awslambda

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imposter-project/imposter-http/internal/adapter"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// LambdaAdapter represents the AWS Lambda runtime adapter
type LambdaAdapter struct{}

// NewAdapter creates a new Lambda adapter instance
func NewAdapter() adapter.Adapter {
	return &LambdaAdapter{}
}

// Start begins the Lambda runtime
func (a *LambdaAdapter) Start() {
	logger.Named("lambda").Info("starting handler", "function", os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))
	lambda.Start(func(req json.RawMessage) (interface{}, error) {
		return HandleLambdaRequest(imposterRuntime, req)
	})
}

var imposterRuntime *adapter.Runtime

func init() {
	// Only execute Lambda initialization if we're running in Lambda mode
	if !adapter.IsLambda() {
		return
	}

	startTime := time.Now()
	defer func() {
		logger.Named("lambda").Info("startup completed", "duration", time.Since(startTime))
	}()

	// For Lambda, default to /var/task/config if IMPOSTER_CONFIG_DIR is not set
	if os.Getenv("IMPOSTER_CONFIG_DIR") == "" {
		logger.Infoln("IMPOSTER_CONFIG_DIR not set, defaulting to /var/task/config")
		os.Setenv("IMPOSTER_CONFIG_DIR", "/var/task/config")
	}

	// Load configuration once during cold start
	imposterRuntime = adapter.InitialiseImposter("")
}

// HandleLambdaRequest handles API Gateway proxy and Function URL events
func HandleLambdaRequest(rt *adapter.Runtime, req json.RawMessage) (interface{}, error) {
	var apiGatewayReq events.APIGatewayProxyRequest
	var lambdaFunctionURLReq events.LambdaFunctionURLRequest

	if err := json.Unmarshal(req, &apiGatewayReq); err == nil && apiGatewayReq.HTTPMethod != "" {
		return handleAPIGatewayProxyRequest(rt, apiGatewayReq), nil
	} else if err := json.Unmarshal(req, &lambdaFunctionURLReq); err == nil && lambdaFunctionURLReq.RequestContext.HTTP.Method != "" {
		return handleLambdaFunctionURLRequest(rt, lambdaFunctionURLReq), nil
	}
	return events.LambdaFunctionURLResponse{StatusCode: 400, Body: "Unsupported request type"}, nil
}

func handleAPIGatewayProxyRequest(rt *adapter.Runtime, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	in, err := apiGatewayInput(req)
	if err != nil {
		logger.Warnf("failed to convert API Gateway request: %v", err)
		return events.APIGatewayProxyResponse{StatusCode: 400, Body: "Failed to convert request"}
	}
	logger.Tracef("request: %s %s", in.Method, in.URL)

	out := rt.Process(in)
	logger.Tracef("response: %d, length:%d", out.StatusCode, len(out.Body))
	return toAPIGatewayResponse(out)
}

func handleLambdaFunctionURLRequest(rt *adapter.Runtime, req events.LambdaFunctionURLRequest) events.LambdaFunctionURLResponse {
	in, err := functionURLInput(req)
	if err != nil {
		logger.Warnf("failed to convert Function URL request: %v", err)
		return events.LambdaFunctionURLResponse{StatusCode: 400, Body: "Failed to convert request"}
	}
	logger.Tracef("request: %s %s", in.Method, in.URL)

	out := rt.Process(in)
	logger.Tracef("response: %d, length:%d", out.StatusCode, len(out.Body))
	return toFunctionURLResponse(out)
}

func apiGatewayInput(req events.APIGatewayProxyRequest) (exchange.RequestInput, error) {
	data, err := decodeBody(req.Body, req.IsBase64Encoded)
	if err != nil {
		return exchange.RequestInput{}, err
	}

	headers := make(map[string][]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = []string{v}
	}
	for k, v := range req.MultiValueHeaders {
		headers[k] = v
	}

	query := url.Values{}
	for k, v := range req.QueryStringParameters {
		query.Set(k, v)
	}
	for k, v := range req.MultiValueQueryStringParameters {
		query[k] = v
	}

	host := firstHeader(headers, "Host")
	if host == "" {
		host = req.RequestContext.DomainName
	}
	u := &url.URL{Scheme: "https", Host: host, Path: req.Path, RawQuery: query.Encode()}

	// the default execute-api endpoint exposes the stage as the first path segment
	abs := u
	if stage := req.RequestContext.Stage; stage != "" && strings.HasSuffix(host, ".amazonaws.com") {
		withStage := *u
		withStage.Path = "/" + stage + u.Path
		abs = &withStage
	}

	return exchange.RequestInput{
		URL:         u,
		AbsoluteURL: abs,
		Method:      req.HTTPMethod,
		ClientIP:    req.RequestContext.Identity.SourceIP,
		HTTPVersion: req.RequestContext.Protocol,
		Body:        data,
		Headers:     headers,
		Cookies:     adapter.ParseCookies(headerValues(headers, "Cookie")),
	}, nil
}

func functionURLInput(req events.LambdaFunctionURLRequest) (exchange.RequestInput, error) {
	data, err := decodeBody(req.Body, req.IsBase64Encoded)
	if err != nil {
		return exchange.RequestInput{}, err
	}

	headers := make(map[string][]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = []string{v}
	}

	u := &url.URL{
		Scheme:   "https",
		Host:     req.RequestContext.DomainName,
		Path:     req.RawPath,
		RawQuery: req.RawQueryString,
	}
	if unescaped, err := url.PathUnescape(req.RawPath); err == nil {
		u.Path = unescaped
		u.RawPath = req.RawPath
	}

	return exchange.RequestInput{
		URL:         u,
		Method:      req.RequestContext.HTTP.Method,
		ClientIP:    req.RequestContext.HTTP.SourceIP,
		HTTPVersion: req.RequestContext.HTTP.Protocol,
		Body:        data,
		Headers:     headers,
		Cookies:     adapter.ParseCookies(req.Cookies),
	}, nil
}

func decodeBody(body string, isBase64 bool) ([]byte, error) {
	if body == "" {
		return nil, nil
	}
	if isBase64 {
		return base64.StdEncoding.DecodeString(body)
	}
	return []byte(body), nil
}

func headerValues(headers map[string][]string, name string) []string {
	var values []string
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			values = append(values, v...)
		}
	}
	return values
}

func firstHeader(headers map[string][]string, name string) string {
	if values := headerValues(headers, name); len(values) > 0 {
		return values[0]
	}
	return ""
}
