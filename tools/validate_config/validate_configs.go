package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/imposter-project/imposter-http/internal/config"
)

//go:embed imposter-config-schema.json
var schemaJSON string

const schemaURL = "imposter-config-schema.json"

// fileResult holds the problems found in one config file
type fileResult struct {
	Path   string
	Errors []string
}

func (r fileResult) Valid() bool {
	return len(r.Errors) == 0
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
}

func loadConfigFiles(configDir string) ([]string, error) {
	var configFiles []string
	err := filepath.WalkDir(configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && config.IsConfigFile(d.Name()) {
			configFiles = append(configFiles, path)
		}
		return nil
	})
	return configFiles, err
}

func validateConfigs(configDir string) ([]fileResult, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	configFiles, err := loadConfigFiles(configDir)
	if err != nil {
		return nil, err
	}

	results := make([]fileResult, 0, len(configFiles))
	for _, configFile := range configFiles {
		results = append(results, validateFile(schema, configFile))
	}
	return results, nil
}

func validateFile(schema *jsonschema.Schema, path string) fileResult {
	result := fileResult{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	content := []byte(config.SubstituteEnvVars(string(raw)))

	doc, err := toJSONValue(content)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if err := schema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			for _, cause := range leafErrors(verr) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", cause.InstanceLocation, cause.Message))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	var cfg config.Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if err := cfg.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	return result
}

// toJSONValue converts a YAML (or JSON) document into the value types
// encoding/json produces
func toJSONValue(content []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func leafErrors(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafErrors(cause)...)
	}
	return leaves
}

func printResults(w io.Writer, results []fileResult) (invalid int) {
	for _, r := range results {
		if r.Valid() {
			fmt.Fprintf(w, "✓ %s - Valid\n", r.Path)
			continue
		}
		invalid++
		fmt.Fprintf(w, "✗ %s - Invalid:\n", r.Path)
		for _, desc := range r.Errors {
			fmt.Fprintf(w, "\t - %s\n", desc)
		}
	}
	fmt.Fprintf(w, "Successfully validated %d of %d files.\n", len(results)-invalid, len(results))
	return invalid
}

func newRootCmd() *cobra.Command {
	var configDir string
	cmd := &cobra.Command{
		Use:           "validate_configs",
		Short:         "Validates your imposter configs against the imposter config schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := validateConfigs(configDir)
			if err != nil {
				return err
			}
			if invalid := printResults(cmd.OutOrStdout(), results); invalid > 0 {
				return fmt.Errorf("%d invalid config file(s)", invalid)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configDir, "configs", "c", "", "Location of config files [required]")
	_ = cmd.MarkFlagRequired("configs")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
