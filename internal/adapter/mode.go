package adapter

import (
	"os"
	"strings"
	"sync"
)

// Mode represents the runtime mode of the application
type Mode int

const (
	ModeUnknown Mode = iota
	ModeLambda
	ModeHTTPServer
	ModeFiber
)

var (
	currentMode Mode
	modeOnce    sync.Once
)

// init determines the runtime mode during package initialization
func init() {
	DetectMode()
}

// DetectMode determines and sets the runtime mode of the application
func DetectMode() Mode {
	modeOnce.Do(func() {
		currentMode = modeFromEnv()
	})
	return currentMode
}

func modeFromEnv() Mode {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return ModeLambda
	}
	if strings.EqualFold(os.Getenv("IMPOSTER_SERVER_ENGINE"), "fiber") {
		return ModeFiber
	}
	return ModeHTTPServer
}

// IsLambda returns true if running in AWS Lambda mode
func IsLambda() bool {
	return currentMode == ModeLambda
}
