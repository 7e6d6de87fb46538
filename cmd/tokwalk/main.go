package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := runRoot(NewRootCmd(), os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

// runRoot executes root with args after expanding legacy flag spellings.
func runRoot(root *cobra.Command, args []string) error {
	root.SetArgs(expandArgs(args))
	return root.Execute()
}

// expandArgs rewrites "-nr" to "--no-recursive". pflag would otherwise read it
// as the shorthands -n and -r. Arguments after "--" are left alone.
func expandArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "--" {
			break
		}
		if a == "-nr" {
			out[i] = "--no-recursive"
		}
	}
	return out
}
