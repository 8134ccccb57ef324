package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imposter-project/imposter-http/pkg/logger"
)

// ValidatePath joins path onto rootDir and ensures the result does not escape it
func ValidatePath(path string, rootDir string) (string, error) {
	filePath := filepath.Clean(filepath.Join(rootDir, path))

	if !strings.HasPrefix(filePath, filepath.Clean(rootDir)+string(filepath.Separator)) {
		msg := fmt.Sprintf("file path escapes root directory: %s", filePath)
		logger.Errorln(msg)
		return "", errors.New(msg)
	}
	return filePath, nil
}
