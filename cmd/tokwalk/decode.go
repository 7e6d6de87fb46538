package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/traverse"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Print the text for token IDs (comma or space separated)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			tokens, err := parseIDs(args)
			if err != nil {
				return err
			}
			svc, err := newService(cmd, cfg, traverse.FailFast)
			if err != nil {
				return err
			}
			text, err := svc.Decode(requestFrom(cfg), tokens)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	return cmd
}

// parseIDs accepts "1 2 3", "1,2,3" and "[1, 2, 3]" style arguments.
func parseIDs(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		arg = strings.Trim(arg, "[]")
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.Atoi(field)
			if err != nil || id < 0 {
				return nil, fmt.Errorf("invalid token id %q", field)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
