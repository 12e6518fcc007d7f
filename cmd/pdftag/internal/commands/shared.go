package commands

import (
	"path/filepath"

	"github.com/coregx/uatag"
	"github.com/coregx/uatag/internal/alttext"
	"github.com/coregx/uatag/internal/config"
)

func baseName(path string) string {
	return filepath.Base(path)
}

// optionsFromConfig builds a uatag.Options from the resolved run
// configuration: a real AnthropicDescriber when an API key is configured,
// NullDescriber (the offline default) otherwise.
func optionsFromConfig(cfg *config.Config) uatag.Options {
	opts := uatag.Options{
		Lang: cfg.Lang,
	}
	if cfg.AnthropicAPIKey != "" {
		opts.Describer = alttext.NewAnthropicDescriber(cfg.AnthropicAPIKey, "claude-3-5-sonnet-latest")
		opts.OCR = alttext.NewTesseractOCR("eng")
	}
	return opts
}
