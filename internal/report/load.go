package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// StoredResult is a control result read back from evidence.json. The raw
// evidence data is not decoded.
type StoredResult struct {
	ControlID       string                  `json:"control_id"`
	Title           string                  `json:"title"`
	Status          models.ControlStatus    `json:"status"`
	EvidenceSources []models.EvidenceSource `json:"evidence_sources"`
	Gaps            []string                `json:"gaps"`
	Errors          []string                `json:"errors"`
}

// StoredAccount is one account entry of a stored run.
type StoredAccount struct {
	AccountID     string         `json:"account_id"`
	AccountName   string         `json:"account_name"`
	IdentityError string         `json:"identity_error"`
	Evidence      []StoredResult `json:"evidence"`
}

// StoredRun is the subset of evidence.json needed to inspect a past run.
type StoredRun struct {
	RunID       string          `json:"run_id"`
	ScanID      string          `json:"scan_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Accounts    []StoredAccount `json:"accounts"`
}

// LoadRun reads evidence.json from a run directory, or from path itself when
// it names a file.
func LoadRun(path string) (*StoredRun, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		path = filepath.Join(path, EvidenceFile)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	var run StoredRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &run, nil
}
