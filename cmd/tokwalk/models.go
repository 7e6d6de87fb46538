package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/registry"
)

type modelRow struct {
	Model    string `json:"model" yaml:"model"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

func newModelsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their encodings (filter with --encoding)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			format, err := normalizeFormat(output)
			if err != nil {
				return err
			}

			models := registry.ValidModels()
			if cfg.Encoding.Name != "" {
				models, err = registry.ModelsForEncoding(cfg.Encoding.Name)
				if err != nil {
					return fmt.Errorf("%w\n\nValid encodings:\n%s", err, registry.ListEncodings())
				}
			}

			rows := make([]modelRow, 0, len(models))
			for _, m := range models {
				enc, _ := registry.EncodingForModel(m)
				rows = append(rows, modelRow{Model: m, Encoding: enc})
			}

			if format != formatText {
				return render(cmd.OutOrStdout(), format, rows)
			}
			for _, r := range rows {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", r.Model, r.Encoding); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format (json|yaml|text)")

	return cmd
}
