package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coregx/uatag"
)

func extractFiguresCmd() *cobra.Command {
	var saveTo string
	cmd := &cobra.Command{
		Use:   "extract-figures <file.pdf>",
		Short: "List every Figure and Formula block and its surrounding context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := uatag.Open(context.Background(), args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			figures, err := doc.ExtractFigures()
			if err != nil {
				return err
			}

			if saveTo != "" {
				if err := os.MkdirAll(saveTo, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", saveTo, err)
				}
			}

			for i, f := range figures {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d: %s — %q\n", f.PageIndex, f.Role, f.Context)
				if saveTo == "" {
					continue
				}
				png, err := doc.RenderRegion(f.PageIndex, f.BBox, 1.0)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "page %d block %d: %v\n", f.PageIndex, f.BlockIndex, err)
					continue
				}
				out := filepath.Join(saveTo, fmt.Sprintf("figure-%03d.png", i))
				if err := os.WriteFile(out, png, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&saveTo, "save-to", "", "directory to save extracted figure images to")
	return cmd
}
