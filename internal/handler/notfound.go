package handler

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/imposter-project/imposter-http/internal/body"
	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/internal/exchange"
)

// notFound generates a 404 page listing the configured resources
func notFound(req *exchange.RequestSnapshot, configs []config.Config) *exchange.ResponseDescription {
	desc := exchange.NewResponseDescription()
	desc.StatusCode = http.StatusNotFound
	desc.Headers.Set("Content-Type", "text/html")

	var page strings.Builder
	page.WriteString(`<html>
<head><title>Not found</title></head>
<body>
<h3>Resource not found</h3>
<p>
No resource exists for: <pre>`)
	page.WriteString(html.EscapeString(fmt.Sprintf("%s %s", req.Method(), req.Path())))
	page.WriteString("</pre></p>")

	if len(configs) > 0 {
		page.WriteString("<p>The available resources are:\n<ul>")
		for _, cfg := range configs {
			page.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(describe(cfg.RequestMatcher))))
		}
		page.WriteString("</ul></p>")
	}

	page.WriteString(`<hr/>
<p>
<em><a href="https://www.imposter.sh">Imposter mock engine</a></em>
</p>
</body>
</html>`)

	desc.Body = body.NewText(page.String(), "")
	return desc
}

func describe(m config.RequestMatcher) string {
	method, path := m.Method, m.Path
	if method == "" {
		method = "*"
	}
	if path == "" {
		path = "/*"
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(method), path)
}
