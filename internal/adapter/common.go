package adapter

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/handler"
	"github.com/imposter-project/imposter-http/internal/response"
	"github.com/imposter-project/imposter-http/pkg/logger"
	"github.com/imposter-project/imposter-http/pkg/utils"
)

// Runtime holds everything an adapter needs to serve requests
type Runtime struct {
	Config       *config.ImposterConfig
	Responder    handler.Responder
	Materializer *response.Materializer
}

// InitialiseImposter performs common initialisation tasks for all adapters
func InitialiseImposter(configDirArg string) *Runtime {
	logger.Infoln("starting imposter...")

	imposterConfig := config.LoadImposterConfig()
	configDir := getConfigDir(configDirArg, imposterConfig)

	if info, err := os.Stat(configDir); os.IsNotExist(err) || !info.IsDir() {
		panic("Specified path is not a valid directory")
	}
	imposterConfig.ConfigDir = configDir

	cfgs, err := config.LoadConfig(configDir)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	logger.Infof("loaded %d config(s) from %s", len(cfgs), configDir)

	return NewRuntime(imposterConfig, handler.FromConfigs(cfgs))
}

// NewRuntime wires a responder to a materializer reading files as configured
func NewRuntime(imposterConfig *config.ImposterConfig, responder handler.Responder) *Runtime {
	return &Runtime{
		Config:       imposterConfig,
		Responder:    responder,
		Materializer: response.NewMaterializer(response.NewFileReader(imposterConfig)),
	}
}

func getConfigDir(configDirArg string, imposterConfig *config.ImposterConfig) string {
	if configDirArg != "" {
		return configDirArg
	}
	if imposterConfig.ConfigDir == "" {
		panic("Config directory path must be provided either as an argument or via IMPOSTER_CONFIG_DIR environment variable")
	}
	return imposterConfig.ConfigDir
}

// Process builds a snapshot from the host input, asks the responder for a
// response and materializes it. Failures become plain text error responses.
func (rt *Runtime) Process(in exchange.RequestInput) *response.Output {
	if in.MaxBodySize == 0 {
		in.MaxBodySize = rt.Config.MaxBodySize
	}
	snapshot, err := exchange.NewRequestSnapshot(in)
	if err != nil {
		logger.Warnf("rejecting request: %v", err)
		return errorOutput(http.StatusBadRequest, "Invalid request")
	}
	logger.Debugf("received request - id:%s, method:%s, path:%s, client:%s",
		snapshot.ID(), snapshot.Method(), snapshot.Path(), snapshot.ClientIP())

	desc, err := rt.Responder.Respond(snapshot)
	if err != nil {
		logger.Errorf("failed to build response - method:%s, path:%s: %v", snapshot.Method(), snapshot.Path(), err)
		return errorOutput(http.StatusInternalServerError, "Failed to build response")
	}

	out, err := rt.Materializer.Materialize(desc)
	if err != nil {
		if errors.Is(err, response.ErrFileNotFound) {
			logger.Errorf("response file missing - method:%s, path:%s: %v", snapshot.Method(), snapshot.Path(), err)
			return errorOutput(http.StatusNotFound, "Response file not found")
		}
		logger.Errorf("failed to write response - method:%s, path:%s: %v", snapshot.Method(), snapshot.Path(), err)
		return errorOutput(http.StatusInternalServerError, "Failed to write response")
	}

	logger.Infof("handled request - method:%s, path:%s, status:%d, length:%d",
		snapshot.Method(), snapshot.Path(), out.StatusCode, len(out.Body))
	return out
}

func errorOutput(status int, message string) *response.Output {
	return &response.Output{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:       []byte(message),
	}
}

// ParseCookies parses Cookie header lines. When a name repeats, the first
// value wins.
func ParseCookies(lines []string) map[string]string {
	cookies := make(map[string]string)
	for _, line := range lines {
		parsed, err := http.ParseCookie(line)
		if err != nil {
			logger.Debugf("ignoring malformed cookie header %q: %v", line, err)
			continue
		}
		for _, c := range parsed {
			if _, exists := cookies[c.Name]; !exists {
				cookies[c.Name] = c.Value
			}
		}
	}
	return cookies
}

// ForwardedURL returns the URL the client used, given the values of the
// X-Forwarded-Proto and X-Forwarded-Host headers. Only the first value of
// each list is used.
func ForwardedURL(u *url.URL, proto, host string) *url.URL {
	proto, host = utils.FirstToken(proto), utils.FirstToken(host)
	if proto == "" && host == "" {
		return u
	}
	abs := *u
	if proto != "" {
		abs.Scheme = proto
	}
	if host != "" {
		abs.Host = host
	}
	return &abs
}

// ClientIP picks the client address, preferring the first X-Forwarded-For
// entry when forwarded headers are trusted
func ClientIP(remoteAddr, forwardedFor string, trustForwarded bool) string {
	if trustForwarded {
		if ip := utils.FirstToken(forwardedFor); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.Trim(remoteAddr, "[]")
}
