package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VerifyResult is the outcome of checking one .sha256 file.
type VerifyResult struct {
	HashFile string `json:"hash_file"`
	Target   string `json:"target"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	OK       bool   `json:"ok"`
	Problem  string `json:"problem,omitempty"`
}

// Verify recomputes the digest of the artifact named inside hashFile. The
// artifact is resolved relative to the hash file's directory. A malformed
// hash file is an error; a missing or modified artifact is reported in the
// result.
func Verify(hashFile string) (VerifyResult, error) {
	res := VerifyResult{HashFile: hashFile}

	raw, err := os.ReadFile(hashFile)
	if err != nil {
		return res, fmt.Errorf("read hash file: %w", err)
	}
	digest, name, ok := strings.Cut(strings.TrimRight(string(raw), "\r\n"), "  ")
	if !ok || len(digest) != 64 || name == "" || strings.ContainsAny(name, `/\`) {
		return res, fmt.Errorf("malformed hash file %s", hashFile)
	}
	res.Expected = strings.ToLower(digest)
	res.Target = filepath.Join(filepath.Dir(hashFile), name)

	data, err := os.ReadFile(res.Target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			res.Problem = "artifact missing"
			return res, nil
		}
		return res, fmt.Errorf("read artifact: %w", err)
	}
	res.Actual = Digest(data)
	res.OK = res.Actual == res.Expected
	if !res.OK {
		res.Problem = "digest mismatch"
	}
	return res, nil
}

// VerifyPath verifies a single .sha256 file, or every .sha256 file in a
// run directory in name order.
func VerifyPath(path string) ([]VerifyResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		res, err := Verify(path)
		if err != nil {
			return nil, err
		}
		return []VerifyResult{res}, nil
	}

	hashFiles, err := filepath.Glob(filepath.Join(path, "*"+HashSuffix))
	if err != nil {
		return nil, err
	}
	if len(hashFiles) == 0 {
		return nil, fmt.Errorf("no %s files in %s", HashSuffix, path)
	}
	sort.Strings(hashFiles)

	results := make([]VerifyResult, 0, len(hashFiles))
	for _, hf := range hashFiles {
		res, err := Verify(hf)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
