package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregx/uatag"
	"github.com/coregx/uatag/internal/validate"
)

func validateCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "validate <file.pdf>",
		Short: "Run the configured conformance checker and print the MorphMind score",
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

			runner := validate.NewRunner(cfg.ValidatorPath)
			report, err := doc.Validate(context.Background(), runner, args[0], validate.Profile(profile))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: compliant=%v score=%d grade=%s\n",
				report.RunID, report.Record.Compliant, report.Score.Score, report.Score.Grade)
			for cat, s := range report.Score.CategoryScores {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %d\n", cat, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "ua1", "conformance profile (ua1, ua2, 1a, 1b, 2a, 2b, 3a, 3b, 4, 4e, 4f)")
	return cmd
}
