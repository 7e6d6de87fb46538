package registry

import (
	"errors"
	"slices"
	"testing"
)

func TestEncodingForModel_AllModelsMapToValidEncoding(t *testing.T) {
	valid := ValidEncodings()

	for _, model := range ValidModels() {
		enc, err := EncodingForModel(model)
		if err != nil {
			t.Fatalf("EncodingForModel(%q): %v", model, err)
		}

		if !slices.Contains(valid, enc) {
			t.Errorf("EncodingForModel(%q) = %q; not in ValidEncodings()", model, enc)
		}
	}
}

func TestEncodingForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", O200kBase},
		{"gpt-4o-mini", O200kBase},
		{"gpt-4", Cl100kBase},
		{"gpt-3.5-turbo", Cl100kBase},
		{"text-embedding-3-large", Cl100kBase},
		{"text-davinci-003", P50kBase},
		{"davinci", R50kBase},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := EncodingForModel(tt.model)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("EncodingForModel(%q) = %q; want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestEncodingForModel_Unknown(t *testing.T) {
	_, err := EncodingForModel("gpt-99")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestModelsForEncoding(t *testing.T) {
	models, err := ModelsForEncoding(O200kBase)
	if err != nil {
		t.Fatalf("ModelsForEncoding: %v", err)
	}

	want := []string{"gpt-4o", "gpt-4o-mini"}
	if !slices.Equal(models, want) {
		t.Errorf("ModelsForEncoding(%q) = %v; want %v", O200kBase, models, want)
	}
}

func TestModelsForEncoding_InverseOfEncodingForModel(t *testing.T) {
	for _, enc := range ValidEncodings() {
		models, err := ModelsForEncoding(enc)
		if err != nil {
			t.Fatalf("ModelsForEncoding(%q): %v", enc, err)
		}

		for _, m := range models {
			got, _ := EncodingForModel(m)
			if got != enc {
				t.Errorf("model %q listed under %q but maps to %q", m, enc, got)
			}
		}
	}
}

func TestModelsForEncoding_Unknown(t *testing.T) {
	_, err := ModelsForEncoding("gpt2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestModelsForEncoding_ReturnsCopy(t *testing.T) {
	models, _ := ModelsForEncoding(Cl100kBase)
	models[0] = "mutated"

	again, _ := ModelsForEncoding(Cl100kBase)
	if again[0] == "mutated" {
		t.Fatal("ModelsForEncoding leaked internal slice")
	}
}

func TestIsModelIsEncoding(t *testing.T) {
	if !IsModel("gpt-4") || IsModel("cl100k_base") {
		t.Error("IsModel mismatch")
	}

	if !IsEncoding("cl100k_base") || IsEncoding("gpt-4") {
		t.Error("IsEncoding mismatch")
	}
}
