package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// Artifacts describes one written run directory.
type Artifacts struct {
	RunDir  string
	Payload models.RunPayload
	// Paths lists every written file: each artifact followed by its hash.
	Paths []string
}

// Assembler writes the evidence bundle of a scan.
type Assembler struct {
	outputDir   string
	recommender *Recommender
	logger      *slog.Logger

	// Now stamps generated_at and the run id. Defaults to time.Now.
	Now func() time.Time
	// NewScanID returns the scan_id. Defaults to a random UUID.
	NewScanID func() string
}

// NewAssembler returns an Assembler writing under outputDir. A nil
// recommender uses the built-in table; a nil logger discards output.
func NewAssembler(outputDir string, rec *Recommender, logger *slog.Logger) *Assembler {
	if rec == nil {
		rec = NewRecommender(nil)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{
		outputDir:   outputDir,
		recommender: rec,
		logger:      logger.With("component", "report"),
		Now:         time.Now,
		NewScanID:   uuid.NewString,
	}
}

// Assemble writes evidence.json, evidence_summary.csv and report.md plus
// their .sha256 files into <outputDir>/<run_id>/. An existing run directory
// is never reused: when the time-based run id is taken, the first eight
// characters of the scan id are appended to it.
func (a *Assembler) Assemble(outcome *models.ScanOutcome) (*Artifacts, error) {
	payload := BuildPayload(outcome, a.Now(), a.NewScanID())
	runID, err := claimRunDir(a.outputDir, payload.RunID, payload.ScanID)
	if err != nil {
		return nil, err
	}
	if runID != payload.RunID {
		a.logger.Warn("run directory exists, using suffixed run id", "taken", payload.RunID, "run_id", runID)
		payload.RunID = runID
	}
	runDir := filepath.Join(a.outputDir, payload.RunID)

	evidenceJSON, err := EncodeEvidence(payload)
	if err != nil {
		return nil, err
	}
	summaryCSV, err := EncodeSummary(payload)
	if err != nil {
		return nil, err
	}
	reportMD := RenderMarkdown(payload, a.recommender)

	out := &Artifacts{RunDir: runDir, Payload: payload}
	for _, f := range []struct {
		name string
		data []byte
	}{
		{EvidenceFile, evidenceJSON},
		{SummaryFile, summaryCSV},
		{ReportFile, reportMD},
	} {
		path, hashPath, err := writeWithHash(runDir, f.name, f.data)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("artifact written", "path", path, "bytes", len(f.data))
		out.Paths = append(out.Paths, path, hashPath)
	}

	a.logger.Info("evidence bundle written", "run_dir", runDir, "run_id", payload.RunID)
	return out, nil
}

// claimRunDir creates outputDir/runID, falling back to runID-<scan id
// prefix> when the first name is taken. It returns the run id whose
// directory it created.
func claimRunDir(outputDir, runID, scanID string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	candidates := []string{runID}
	if scanID != "" {
		candidates = append(candidates, runID+"-"+scanID[:min(len(scanID), 8)])
	}
	for _, id := range candidates {
		err := os.Mkdir(filepath.Join(outputDir, id), 0o755)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create run directory: %w", err)
		}
	}
	return "", fmt.Errorf("create run directory: %s already exists", filepath.Join(outputDir, candidates[len(candidates)-1]))
}
