package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/bpe"
	"github.com/example/go-tokwalk/internal/registry"
)

func newEncodingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encodings",
		Short: "List encodings and manage the local rank-file cache",
	}

	cmd.AddCommand(newEncodingsListCmd())
	cmd.AddCommand(newEncodingsFetchCmd())
	cmd.AddCommand(newEncodingsVerifyCmd())
	return cmd
}

type encodingRow struct {
	Encoding string   `json:"encoding" yaml:"encoding"`
	Models   []string `json:"models" yaml:"models"`
}

func newEncodingsListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List encodings and the models that use them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := normalizeFormat(output)
			if err != nil {
				return err
			}

			var rows []encodingRow
			for _, e := range registry.ValidEncodings() {
				models, _ := registry.ModelsForEncoding(e)
				rows = append(rows, encodingRow{Encoding: e, Models: models})
			}

			if format != formatText {
				return render(cmd.OutOrStdout(), format, rows)
			}
			for _, r := range rows {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", r.Encoding, strings.Join(r.Models, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format (json|yaml|text)")

	return cmd
}

func newEncodingsFetchCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "fetch [ENCODING...]",
		Short: "Download pinned rank files into the cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			err = bpe.Fetch(cmd.Context(), bpe.FetchOptions{
				Encodings: args,
				CacheDir:  cfg.Cache.Dir,
				BaseURL:   baseURL,
				Stdout:    cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("encodings fetch failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", bpe.DefaultBaseURL, "Location the rank files are downloaded from")

	return cmd
}

func newEncodingsVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [ENCODING...]",
		Short: "Re-hash cached rank files against the pinned checksums",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			results, err := bpe.Verify(cfg.Cache.Dir, args...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				switch r.Status {
				case bpe.StatusOK:
					_, _ = fmt.Fprintf(out, "  ✓ %s\n", r.Encoding)
				case bpe.StatusMismatch:
					_, _ = fmt.Fprintf(out, "  ✗ %s: checksum mismatch (got %s)\n", r.Encoding, r.Actual)
				default:
					_, _ = fmt.Fprintf(out, "  ✗ %s: %s (%s)\n", r.Encoding, r.Status, r.Path)
				}
			}

			if !bpe.AllOK(results) {
				return errors.New("rank cache verification failed; run `tokwalk encodings fetch`")
			}
			return nil
		},
	}

	return cmd
}

