package fiberserver

import (
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/imposter-project/imposter-http/internal/adapter"
	"github.com/imposter-project/imposter-http/internal/exchange"
	"github.com/imposter-project/imposter-http/internal/response"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

// FiberAdapter serves requests with fiber
type FiberAdapter struct {
	configDir string
}

// NewAdapter creates a new fiber server adapter instance
func NewAdapter(configDir string) adapter.Adapter {
	return &FiberAdapter{configDir: configDir}
}

// Start begins listening for HTTP requests and handles them
func (a *FiberAdapter) Start() {
	rt := adapter.InitialiseImposter(a.configDir)
	addr := ":" + rt.Config.ServerPort

	log := logger.Named("fiber")
	log.Info("server is listening", "addr", addr)
	if err := NewApp(rt).Listen(addr); err != nil {
		log.Error("error starting server", "addr", addr, "error", err)
	}
}

// NewApp builds a fiber app serving every request through rt
func NewApp(rt *adapter.Runtime) *fiber.App {
	cfg := fiber.Config{
		CaseSensitive: true,
	}
	if rt.Config.MaxBodySize > 0 {
		cfg.BodyLimit = int(rt.Config.MaxBodySize)
	}
	app := fiber.New(cfg)

	app.All("/*", func(c fiber.Ctx) error {
		in, err := NewRequestInput(c, rt.Config.TrustForwardedHeaders)
		if err != nil {
			logger.Warnf("failed to read request - method:%s, path:%s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusBadRequest).SendString("Invalid request")
		}
		return writeOutput(c, rt.Process(in))
	})
	return app
}

// NewRequestInput converts the fiber request into snapshot input
func NewRequestInput(c fiber.Ctx, trustForwarded bool) (exchange.RequestInput, error) {
	u, err := url.Parse(c.Scheme() + "://" + c.Host() + c.OriginalURL())
	if err != nil {
		return exchange.RequestInput{}, err
	}

	headers := make(map[string][]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		headers[k] = append(headers[k], string(value))
	})

	cookies := make(map[string]string)
	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		if _, exists := cookies[string(key)]; !exists {
			cookies[string(key)] = string(value)
		}
	})

	abs := u
	forwardedFor := ""
	if trustForwarded {
		abs = adapter.ForwardedURL(u, c.Get("X-Forwarded-Proto"), c.Get("X-Forwarded-Host"))
		forwardedFor = c.Get("X-Forwarded-For")
	}

	// fasthttp reuses the request buffer once the handler returns
	data := append([]byte(nil), c.Request().Body()...)

	return exchange.RequestInput{
		URL:         u,
		AbsoluteURL: abs,
		Method:      c.Method(),
		ClientIP:    adapter.ClientIP(c.IP(), forwardedFor, trustForwarded),
		HTTPVersion: c.Protocol(),
		Body:        data,
		Headers:     headers,
		Cookies:     cookies,
	}, nil
}

func writeOutput(c fiber.Ctx, out *response.Output) error {
	// no Content-Type unless the response sets one
	c.Response().Header.SetNoDefaultContentType(true)
	for name, values := range out.Header {
		for _, v := range values {
			c.Response().Header.Add(name, v)
		}
	}
	c.Status(out.StatusCode)
	return c.Send(out.Body)
}
