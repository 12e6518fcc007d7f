package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregx/uatag"
)

func makeAccessibleCmd() *cobra.Command {
	var output, docType string
	cmd := &cobra.Command{
		Use:   "make-accessible <file.pdf>",
		Short: "Run the full remediation pipeline: tag content and apply catalog-level accessibility metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if docType != "" {
				cfg.DocType = docType
			}
			doc, err := uatag.Open(context.Background(), args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			result, err := doc.MakeAccessible(optionsFromConfig(cfg))
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.OutputDir + "/" + baseName(args[0])
			}
			if err := doc.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "remediated %d pages, wrote %s\n", len(result.Pages), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output path (default: <output-dir>/<input basename>)")
	cmd.Flags().StringVar(&docType, "doc-type", "", "document type label (overrides config)")
	return cmd
}
