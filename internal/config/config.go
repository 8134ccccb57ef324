package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imposter-project/imposter-http/pkg/logger"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// ImposterConfig holds application-wide settings read from the environment
type ImposterConfig struct {
	ServerPort            string
	ServerEngine          string
	ConfigDir             string
	MaxBodySize           int64
	TrustForwardedHeaders bool

	S3Region       string
	S3Bucket       string
	RedisAddr      string
	RedisPassword  string
	RedisKeyPrefix string
}

// LoadImposterConfig loads configuration from environment variables
func LoadImposterConfig() *ImposterConfig {
	port := os.Getenv("IMPOSTER_PORT")
	if port == "" {
		port = "8080"
	}

	maxBodySize := int64(defaultMaxBodySize)
	if raw := os.Getenv("IMPOSTER_MAX_BODY_SIZE"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			maxBodySize = n
		} else {
			logger.Warnf("ignoring invalid IMPOSTER_MAX_BODY_SIZE %q", raw)
		}
	}

	region := os.Getenv("IMPOSTER_S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	return &ImposterConfig{
		ServerPort:            port,
		ServerEngine:          strings.ToLower(os.Getenv("IMPOSTER_SERVER_ENGINE")),
		ConfigDir:             os.Getenv("IMPOSTER_CONFIG_DIR"),
		MaxBodySize:           maxBodySize,
		TrustForwardedHeaders: os.Getenv("IMPOSTER_TRUST_FORWARDED_HEADERS") == "true",
		S3Region:              region,
		S3Bucket:              os.Getenv("IMPOSTER_S3_BUCKET"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisKeyPrefix:        os.Getenv("IMPOSTER_REDIS_KEY_PREFIX"),
	}
}

// LoadConfig loads all config files in the specified directory
func LoadConfig(configDir string) ([]Config, error) {
	var configs []Config

	scanRecursive := os.Getenv("IMPOSTER_CONFIG_SCAN_RECURSIVE") == "true"

	err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Skip subdirectories if not scanning recursively
		if info.IsDir() && path != configDir && !scanRecursive {
			return filepath.SkipDir
		}
		if info.IsDir() || !IsConfigFile(info.Name()) {
			return nil
		}

		logger.Infof("loading config file: %s", path)
		fileConfig, err := parseConfig(path)
		if err != nil {
			return err
		}

		// Response files are relative to the config file that names them
		relDir, err := filepath.Rel(configDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		if fileConfig.Response != nil && fileConfig.Response.File != "" && relDir != "." {
			fileConfig.Response.File = filepath.Join(relDir, fileConfig.Response.File)
		}
		configs = append(configs, *fileConfig)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return configs, nil
}

// IsConfigFile reports whether a file name follows the *-config.{json,yaml,yml} convention
func IsConfigFile(name string) bool {
	return strings.HasSuffix(name, "-config.json") ||
		strings.HasSuffix(name, "-config.yaml") ||
		strings.HasSuffix(name, "-config.yml")
}

// parseConfig loads and parses a YAML configuration file
func parseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data = []byte(SubstituteEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{env\.([A-Z0-9_]+)(:-([^}]+))?\}`)

// SubstituteEnvVars replaces ${env.VAR} and ${env.VAR:-default} with environment variable values
func SubstituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		envVar := groups[1]
		defaultValue := groups[3]
		if value, exists := os.LookupEnv(envVar); exists {
			return value
		}
		return defaultValue
	})
}
