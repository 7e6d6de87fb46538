package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/bpe"
	"github.com/example/go-tokwalk/internal/doctor"
	"github.com/example/go-tokwalk/internal/registry"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that every encoding loads and the rank cache is intact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				Loader:         cfg.Encoding.Loader,
				Encodings:      registry.ValidEncodings(),
				LoadEncoding:   tokenizer.Get,
				FallbackCodecs: cfg.Text.FallbackCodecs,
			}
			if cfg.Encoding.Loader == bpe.LoaderCache {
				dcfg.VerifyCache = func() ([]bpe.VerifyResult, error) {
					return bpe.Verify(cfg.Cache.Dir)
				}
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	return cmd
}
