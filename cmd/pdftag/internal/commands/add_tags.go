package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregx/uatag"
)

func addTagsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "add-tags <file.pdf>",
		Short: "Tag every page's content stream and attach a structure tree, without catalog metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			doc, err := uatag.Open(context.Background(), args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			result, err := doc.AddTags(optionsFromConfig(cfg))
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			if err := doc.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %d pages, wrote %s\n", len(result.Pages), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output path (default: overwrite input)")
	return cmd
}
