package handler

import (
	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/matcher"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// Responder produces the response description for a request
type Responder interface {
	Respond(req *exchange.RequestSnapshot) (*exchange.ResponseDescription, error)
}

// ResponderFunc adapts a function to Responder
type ResponderFunc func(req *exchange.RequestSnapshot) (*exchange.ResponseDescription, error)

func (f ResponderFunc) Respond(req *exchange.RequestSnapshot) (*exchange.ResponseDescription, error) {
	return f(req)
}

// StaticResponder returns the configured response for every request
type StaticResponder struct {
	Response *config.Response
}

func (s StaticResponder) Respond(_ *exchange.RequestSnapshot) (*exchange.ResponseDescription, error) {
	if s.Response == nil {
		return exchange.NewResponseDescription(), nil
	}
	return s.Response.Description()
}

// EchoResponder returns the request snapshot as indented JSON
type EchoResponder struct{}

func (EchoResponder) Respond(req *exchange.RequestSnapshot) (*exchange.ResponseDescription, error) {
	desc := exchange.NewResponseDescription()
	desc.Headers.Set("Content-Type", "application/json")
	desc.Body = body.NewJSON(req, true)
	return desc, nil
}

// Handler dispatches each request to the best matching config
type Handler struct {
	configs []config.Config
}

// FromConfigs creates a Handler for the loaded configs
func FromConfigs(configs []config.Config) *Handler {
	return &Handler{configs: configs}
}

// Respond implements Responder
func (h *Handler) Respond(req *exchange.RequestSnapshot) (*exchange.ResponseDescription, error) {
	var matches []matcher.MatchResult
	for i := range h.configs {
		cfg := &h.configs[i]
		score, wildcard := matcher.CalculateMatchScore(req, &cfg.RequestMatcher)
		if score == matcher.NegativeMatchScore {
			continue
		}
		matches = append(matches, matcher.MatchResult{Config: cfg, Score: score, Wildcard: wildcard})
	}

	if len(matches) == 0 {
		logger.Debugf("no config matched - method:%s, path:%s", req.Method(), req.Path())
		return notFound(req, h.configs), nil
	}

	best, tie := matcher.FindBestMatch(matches)
	if tie {
		logger.Warnf("multiple configs matched request with equal specificity - method:%s, path:%s - using first", req.Method(), req.Path())
	}
	return responderFor(best.Config).Respond(req)
}

func responderFor(cfg *config.Config) Responder {
	if cfg.Echo {
		return EchoResponder{}
	}
	return StaticResponder{Response: cfg.Response}
}
