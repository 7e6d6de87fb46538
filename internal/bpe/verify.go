package bpe

import (
	"path/filepath"
)

// Status of one cached rank file.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMissing  Status = "missing"
	StatusMismatch Status = "mismatch"
	StatusError    Status = "error"
)

// VerifyResult reports the state of one cached rank file.
type VerifyResult struct {
	Encoding string
	Path     string
	Status   Status
	Actual   string
	Err      error
}

// Verify re-hashes the cached rank files for encodings (all when empty).
func Verify(cacheDir string, encodings ...string) ([]VerifyResult, error) {
	files, err := selectFiles(encodings)
	if err != nil {
		return nil, err
	}
	return verifyFiles(cacheDir, files), nil
}

func verifyFiles(cacheDir string, files []RankFile) []VerifyResult {
	out := make([]VerifyResult, 0, len(files))
	for _, f := range files {
		out = append(out, verifyFile(cacheDir, f))
	}
	return out
}

func verifyFile(cacheDir string, f RankFile) VerifyResult {
	res := VerifyResult{Encoding: f.Encoding, Path: filepath.Join(cacheDir, f.Filename)}

	ok, err := existingMatches(res.Path, f.SHA256)
	switch {
	case err != nil:
		res.Status, res.Err = StatusError, err
	case ok:
		res.Status, res.Actual = StatusOK, f.SHA256
	default:
		actual, hashErr := fileSHA256(res.Path)
		if hashErr != nil {
			res.Status = StatusMissing
		} else {
			res.Status, res.Actual = StatusMismatch, actual
		}
	}
	return res
}

// AllOK reports whether every result is StatusOK.
func AllOK(results []VerifyResult) bool {
	for _, r := range results {
		if r.Status != StatusOK {
			return false
		}
	}
	return true
}
