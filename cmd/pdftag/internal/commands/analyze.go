package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregx/uatag"
)

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Run layout analysis and classification without rewriting the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := uatag.Open(context.Background(), args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			if err := doc.Analyze(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d pages\n", doc.PageCount())
			return nil
		},
	}
}
