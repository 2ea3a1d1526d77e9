package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gowebpki/jcs"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// Artifact file names inside a run directory.
const (
	EvidenceFile = "evidence.json"
	SummaryFile  = "evidence_summary.csv"
	ReportFile   = "report.md"
	HashSuffix   = ".sha256"
)

// summaryHeader is the column order of evidence_summary.csv.
var summaryHeader = []string{
	"account_id", "account_name", "control_id", "title", "status",
	"gap_count", "error_count", "noncompliant_count",
}

// EncodeEvidence renders payload as RFC 8785 canonical JSON followed by a
// newline.
func EncodeEvidence(payload models.RunPayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize evidence: %w", err)
	}
	return append(canonical, '\n'), nil
}

// EncodeSummary renders one CSV row per account and control result.
// Accounts that could not be scanned contribute no rows.
func EncodeSummary(payload models.RunPayload) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(summaryHeader); err != nil {
		return nil, err
	}
	for _, acct := range payload.Accounts {
		for _, res := range acct.Evidence {
			row := []string{
				acct.AccountID,
				acct.AccountName,
				res.ControlID,
				res.Title,
				string(res.Status),
				strconv.Itoa(len(res.Gaps)),
				strconv.Itoa(len(res.Errors)),
				strconv.Itoa(res.NoncompliantCount()),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashLine is the sha256sum-compatible content of a .sha256 file.
func hashLine(data []byte, name string) []byte {
	return []byte(fmt.Sprintf("%s  %s\n", Digest(data), name))
}

// writeFileAtomic writes data to a uniquely named temp file beside path and
// renames it into place. The temp file is removed on any failure.
func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Chmod(0o644); err != nil {
		_ = f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// writeWithHash writes data to dir/name and its digest to dir/name.sha256,
// returning both paths.
func writeWithHash(dir, name string, data []byte) (string, string, error) {
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", "", fmt.Errorf("write %s: %w", name, err)
	}
	hashPath := path + HashSuffix
	if err := writeFileAtomic(hashPath, hashLine(data, name)); err != nil {
		return "", "", fmt.Errorf("write %s%s: %w", name, HashSuffix, err)
	}
	return path, hashPath, nil
}
