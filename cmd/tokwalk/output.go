package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/go-tokwalk/internal/traverse"
)

// Output formats accepted by --output.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

func normalizeFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case formatText, "txt":
		return formatText, nil
	default:
		return "", fmt.Errorf("invalid output %q (expected %s|%s|%s)", raw, formatJSON, formatYAML, formatText)
	}
}

// render writes v in format. Text rendering knows token slices, counts and
// trees; json and yaml defer to the value's own marshalers.
func render(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatText:
		return renderText(w, v)
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

func renderText(w io.Writer, v any) error {
	switch t := v.(type) {
	case []int:
		_, err := fmt.Fprintln(w, joinInts(t))
		return err
	case int:
		_, err := fmt.Fprintln(w, t)
		return err
	case string:
		_, err := fmt.Fprintln(w, t)
		return err
	case *traverse.Tree:
		return writeTreeText(w, "", t)
	case countsOutput:
		if err := writeCountsText(w, "", t.Files); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "total: %d\n", t.Total)
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// writeTreeText prints one "path: ids" line per leaf in traversal order.
func writeTreeText(w io.Writer, prefix string, t *traverse.Tree) error {
	if t.IsLeaf() {
		_, err := fmt.Fprintf(w, "%s: %s\n", prefix, joinInts(t.Tokens()))
		return err
	}
	for _, e := range t.Entries() {
		if err := writeTreeText(w, path.Join(prefix, e.Name), e.Tree); err != nil {
			return err
		}
	}
	return nil
}

func writeCountsText(w io.Writer, prefix string, c *traverse.CountTree) error {
	if c == nil {
		return nil
	}
	if c.Leaf {
		_, err := fmt.Fprintf(w, "%s: %d\n", prefix, c.Count)
		return err
	}
	for _, e := range c.Entries {
		if err := writeCountsText(w, path.Join(prefix, e.Name), e.Tree); err != nil {
			return err
		}
	}
	return nil
}

// countsOutput is the count-files result: the total plus per-file counts.
type countsOutput struct {
	Total int                 `json:"total" yaml:"total"`
	Files *traverse.CountTree `json:"files" yaml:"files"`
}
