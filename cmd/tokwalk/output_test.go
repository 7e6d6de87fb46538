package main

import (
	"bytes"
	"testing"

	"github.com/example/go-tokwalk/internal/traverse"
)

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", formatJSON, false},
		{"JSON", formatJSON, false},
		{"yml", formatYAML, false},
		{" yaml ", formatYAML, false},
		{"txt", formatText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := normalizeFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normalizeFormat(%q) = nil error", tt.in)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("normalizeFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func sampleTree() *traverse.Tree {
	return traverse.Node(
		traverse.Entry{Name: "z.txt", Tree: traverse.Leaf([]int{1, 2})},
		traverse.Entry{Name: "a", Tree: traverse.Node(
			traverse.Entry{Name: "m.txt", Tree: traverse.Leaf([]int{3})},
		)},
	)
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"tokens", []int{1, 2, 3}, "1,2,3\n"},
		{"empty tokens", []int{}, "\n"},
		{"count", 7, "7\n"},
		{"tree", sampleTree(), "z.txt: 1,2\na/m.txt: 3\n"},
		{"counts", countsOutput{Total: 3, Files: traverse.Counts(sampleTree())}, "z.txt: 2\na/m.txt: 1\ntotal: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := render(&buf, formatText, tt.v); err != nil {
				t.Fatalf("render: %v", err)
			}

			if buf.String() != tt.want {
				t.Errorf("got %q; want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRender_JSONAndYAMLKeepOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, formatYAML, countsOutput{Total: 3, Files: traverse.Counts(sampleTree())}); err != nil {
		t.Fatalf("render yaml: %v", err)
	}

	want := "total: 3\nfiles:\n  z.txt: 2\n  a:\n    m.txt: 1\n"
	if buf.String() != want {
		t.Errorf("yaml = %q; want %q", buf.String(), want)
	}

	buf.Reset()
	if err := render(&buf, formatJSON, sampleTree()); err != nil {
		t.Fatalf("render json: %v", err)
	}

	want = "{\n  \"z.txt\": [\n    1,\n    2\n  ],\n  \"a\": {\n    \"m.txt\": [\n      3\n    ]\n  }\n}\n"
	if buf.String() != want {
		t.Errorf("json = %q; want %q", buf.String(), want)
	}
}
