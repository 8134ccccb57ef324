package main

import (
	"os"

	"github.com/imposter-project/imposter-http/internal/adapter"
	"github.com/imposter-project/imposter-http/internal/adapter/awslambda"
	"github.com/imposter-project/imposter-http/internal/adapter/fiberserver"
	"github.com/imposter-project/imposter-http/internal/adapter/httpserver"
	"github.com/imposter-project/imposter-http/pkg/logger"
)

func main() {
	logger.Configure(os.Stderr)

	var configDirArg string
	if len(os.Args) > 1 {
		configDirArg = os.Args[1]
	}

	var a adapter.Adapter
	switch adapter.DetectMode() {
	case adapter.ModeLambda:
		a = awslambda.NewAdapter()
	case adapter.ModeFiber:
		a = fiberserver.NewAdapter(configDirArg)
	default:
		a = httpserver.NewAdapter(configDirArg)
	}
	a.Start()
}
