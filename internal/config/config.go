// Package config loads run configuration for the pdftag CLI: output
// locations, the default document language, describer credentials, and the
// validator binary, from defaults, a config file, and environment
// variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved run configuration, after merging defaults, the
// config file, and the environment.
type Config struct {
	// OutputDir is where make-accessible writes its result when no explicit
	// --output path is given.
	OutputDir string
	// DocType labels the source document kind (e.g. "report", "form");
	// purely informational, the pipeline does not read it.
	DocType string
	// Lang is the default /Lang value applied when a document carries
	// none and the describer cannot infer one.
	Lang string
	// AnthropicAPIKey configures alttext.AnthropicDescriber when set.
	AnthropicAPIKey string
	// ValidatorPath is the conformance checker binary the validate command
	// invokes.
	ValidatorPath string
}

// Load reads configuration from configPath (if non-empty), environment
// variables prefixed PDFTAG_, and defaults, returning the merged result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PDFTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("doc_type", "report")
	v.SetDefault("lang", "en-US")
	v.SetDefault("validator_path", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	return &Config{
		OutputDir:       v.GetString("output_dir"),
		DocType:         v.GetString("doc_type"),
		Lang:            v.GetString("lang"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		ValidatorPath:   v.GetString("validator_path"),
	}, nil
}
