package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/config"
	"github.com/example/go-tokwalk/internal/service"
	"github.com/example/go-tokwalk/internal/tokenizer"
	"github.com/example/go-tokwalk/internal/traverse"
)

// batchFlags are the per-command traversal switches layered over config.
type batchFlags struct {
	noRecursive bool
	nr          bool
	keepGoing   bool
	output      string
}

func (b *batchFlags) register(cmd *cobra.Command, traversal bool) {
	cmd.Flags().StringVarP(&b.output, "output", "o", formatJSON, "Output format (json|yaml|text)")
	if !traversal {
		return
	}
	cmd.Flags().BoolVarP(&b.noRecursive, "no-recursive", "n", false, "Do not descend into subdirectories")
	cmd.Flags().BoolVar(&b.nr, "nr", false, "Alias for --no-recursive")
	_ = cmd.Flags().MarkHidden("nr")
	cmd.Flags().BoolVar(&b.keepGoing, "keep-going", false, "Skip unreadable entries instead of failing")
}

func (b *batchFlags) recursive(cfg config.Config) bool {
	return cfg.Traversal.Recursive && !b.noRecursive && !b.nr
}

func (b *batchFlags) policy(cfg config.Config) traverse.Policy {
	return traverse.PolicyFor(cfg.Traversal.ExitOnListError && !b.keepGoing)
}

// newService builds the service for one command invocation.
func newService(cmd *cobra.Command, cfg config.Config, policy traverse.Policy) (*service.Service, error) {
	files, err := tokenizer.NewFileTokenizer(cfg.Text.FallbackCodecs...)
	if err != nil {
		return nil, err
	}

	return service.New(
		service.WithFileTokenizer(files),
		service.WithTraversal(traverse.Options{
			Policy:      policy,
			Quiet:       cfg.Traversal.Quiet,
			Workers:     cfg.Traversal.Workers,
			ExcludeDirs: cfg.Traversal.ExcludeDirs,
			Progress:    cmd.ErrOrStderr(),
			Logger:      newLogger(cmd.ErrOrStderr(), cfg.LogLevel),
		}),
	)
}

// textArg returns the text argument, reading stdin when it is "-".
func textArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

// setup loads config and the output format shared by every tokenize/count command.
func setup(cmd *cobra.Command, flags *batchFlags) (config.Config, *service.Service, string, error) {
	cfg, err := requireConfig()
	if err != nil {
		return config.Config{}, nil, "", err
	}
	format, err := normalizeFormat(flags.output)
	if err != nil {
		return config.Config{}, nil, "", err
	}
	svc, err := newService(cmd, cfg, flags.policy(cfg))
	if err != nil {
		return config.Config{}, nil, "", err
	}
	return cfg, svc, format, nil
}

func newTokenizeStrCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "tokenize-str TEXT",
		Short: "Print the token IDs of TEXT (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			text, err := textArg(cmd, args[0])
			if err != nil {
				return err
			}
			tokens, err := svc.TokenizeStr(requestFrom(cfg), text)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, tokens)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newCountStrCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "count-str TEXT",
		Short: "Print the number of tokens in TEXT (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			text, err := textArg(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := svc.CountStr(requestFrom(cfg), text)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, n)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newTokenizeFileCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "tokenize-file PATH",
		Short: "Print the token IDs of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			tokens, err := svc.TokenizeFile(requestFrom(cfg), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, tokens)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newCountFileCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "count-file PATH",
		Short: "Print the number of tokens in one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			n, err := svc.CountFile(requestFrom(cfg), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, n)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newTokenizeFilesCmd() *cobra.Command {
	var (
		flags   batchFlags
		flatten bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize-files PATH...",
		Short: "Tokenize a list of files, or every file under one directory",
		Long: strings.TrimSpace(`
Tokenize a list of files, or every file under one directory.

A single directory argument is walked (recursively unless --no-recursive) and
the result mirrors its tree. Any other argument list is tokenized in order and
keyed by file name; a directory in such a list is an error. --flatten prints
the concatenated token IDs of every file instead of the tree.`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			in := service.InputFor(args, flags.recursive(cfg))
			if flatten {
				tokens, err := svc.FlattenFiles(cmd.Context(), requestFrom(cfg), in)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), format, tokens)
			}
			res, err := svc.TokenizeFiles(cmd.Context(), requestFrom(cfg), in)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, res.Tree)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&flatten, "flatten", false, "Print one token list concatenated in traversal order")

	return cmd
}

func newCountFilesCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "count-files PATH...",
		Short: "Count tokens over a list of files or one directory tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, format, err := setup(cmd, &flags)
			if err != nil {
				return err
			}
			res, err := svc.CountFiles(cmd.Context(), requestFrom(cfg), service.InputFor(args, flags.recursive(cfg)))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, countsOutput{Total: res.Total, Files: res.Tree})
		},
	}
	flags.register(cmd, true)

	return cmd
}

