// Package commands builds the pdftag cobra command tree: analyze,
// make-accessible, extract-figures, validate, and add-tags.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/coregx/uatag/internal/config"
)

var configPath string

// Root builds the top-level pdftag command, with every subcommand
// attached.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdftag",
		Short: "Remediate a PDF into a PDF/UA-1 tagged document",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a pdftag config file")

	root.AddCommand(
		analyzeCmd(),
		makeAccessibleCmd(),
		extractFiguresCmd(),
		validateCmd(),
		addTagsCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
