package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/bench"
	"github.com/example/go-tokwalk/internal/service"
)

func newBenchCmd() *cobra.Command {
	var (
		text   string
		runs   int
		format string
		minTPS float64
		flags  batchFlags
	)

	cmd := &cobra.Command{
		Use:   "bench [PATH...]",
		Short: "Benchmark tokenization throughput over --text or a set of files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (text == "") == (len(args) == 0) {
				return errors.New("bench needs either --text or at least one PATH")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			cfg, svc, _, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			req := requestFrom(cfg)

			var fn func(context.Context) (int, error)
			if text != "" {
				fn = func(context.Context) (int, error) { return svc.CountStr(req, text) }
			} else {
				in := service.InputFor(args, flags.recursive(cfg))
				fn = func(ctx context.Context) (int, error) {
					res, err := svc.CountFiles(ctx, req, in)
					if err != nil {
						return 0, err
					}
					return res.Total, nil
				}
			}

			results, err := bench.Run(cmd.Context(), runs, fn)
			if err != nil {
				return err
			}
			stats := bench.ComputeStats(bench.Durations(results))

			switch strings.ToLower(format) {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckTPSFloor(bench.MeanTPS(results), minTPS)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize on each run")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minTPS, "min-tps", 0, "Exit non-zero if mean warm throughput is below this many tokens/s (0 = disabled)")
	flags.register(cmd, true)
	_ = cmd.Flags().MarkHidden("output")

	return cmd
}
