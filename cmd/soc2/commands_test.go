package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/config"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence/evidencetest"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/report"
)

var fixedNow = time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

// testScan runs a scan against in-memory doubles and returns the console
// output and the run directory.
func testScan(t *testing.T, sessions *mockSessions, mutate func(*config.Config)) (string, string, error) {
	t.Helper()
	out := t.TempDir()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Scan.OutputDir = out
	cfg.Scan.Regions = []string{"us-east-1"}
	if mutate != nil {
		mutate(cfg)
	}

	asm := report.NewAssembler(out, report.NewRecommender(cfg.Recommendations), nil)
	asm.Now = func() time.Time { return fixedNow }
	asm.NewScanID = func() string { return "00000000-0000-4000-8000-000000000001" }

	deps := scanDeps{
		sessions:  sessions,
		collector: evidencetest.New(),
		assembler: asm,
	}

	var buf bytes.Buffer
	err := runScan(context.Background(), deps, cfg, &buf, nil)
	return buf.String(), filepath.Join(out, report.RunID(fixedNow)), err
}

// ── scan ──────────────────────────────────────────────────────────────────────

func TestRunScan_WritesBundleAndPrintsTable(t *testing.T) {
	out, runDir, err := testScan(t, healthySessions(), nil)
	if err != nil {
		t.Fatalf("runScan returned error: %v", err)
	}

	for _, name := range []string{report.EvidenceFile, report.SummaryFile, report.ReportFile} {
		for _, file := range []string{name, name + report.HashSuffix} {
			if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
				t.Errorf("expected %s in run directory: %v", file, err)
			}
		}
	}

	for _, want := range []string{
		"Run:      scan-20260301T090507Z",
		"Identity: 111111111111",
		"Accounts: 1",
		"CC1",
		"CC8",
		"Artifacts written to " + runDir,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, out)
		}
	}

	var vbuf bytes.Buffer
	if err := runVerify(&vbuf, runDir); err != nil {
		t.Errorf("fresh bundle must verify: %v\n%s", err, vbuf.String())
	}
}

func TestRunScan_JSONFormat(t *testing.T) {
	out, _, err := testScan(t, healthySessions(), func(c *config.Config) {
		c.Scan.Format = "json"
		c.Scan.Controls = []string{"CC7", "CC99"}
	})
	if err != nil {
		t.Fatalf("runScan returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if decoded["run_id"] != "scan-20260301T090507Z" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	if !strings.Contains(out, `"not_implemented"`) {
		t.Errorf("unknown control must be reported as not_implemented\ngot:\n%s", out)
	}
}

func TestRunScan_SessionLoadFailureIsFatal(t *testing.T) {
	_, _, err := testScan(t, &mockSessions{loadErr: errors.New("no profile")}, nil)
	if err == nil || !strings.Contains(err.Error(), "scan failed") {
		t.Fatalf("expected scan failure; got %v", err)
	}
}

func TestRunScan_AssumeRoleFailureStillSucceeds(t *testing.T) {
	sessions := healthySessions()
	sessions.assumeErr = errors.New("AccessDenied")

	out, _, err := testScan(t, sessions, func(c *config.Config) {
		c.Scan.AccountIDs = []string{"111111111111", "333333333333"}
	})
	if err != nil {
		t.Fatalf("per-account failures must not fail the command: %v", err)
	}
	if !strings.Contains(out, "unreachable: 1") {
		t.Errorf("expected one unreachable account\ngot:\n%s", out)
	}
	if !strings.Contains(out, "333333333333") {
		t.Errorf("failed account must still be listed\ngot:\n%s", out)
	}
}

// ── flag merge ────────────────────────────────────────────────────────────────

func TestMergeScanFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := &cobra.Command{Use: "scan"}
	var f scanFlags
	bindScanFlags(cmd, &f)
	if err := cmd.ParseFlags([]string{"--regions", "us-east-1, eu-west-1", "--concurrency", "4"}); err != nil {
		t.Fatal(err)
	}

	s := config.ScanConfig{
		Profile:   "from-file",
		Regions:   []string{"ap-south-1"},
		RoleName:  "AuditRole",
		OutputDir: "evidence",
	}
	mergeScanFlags(cmd, &s, f)

	if want := []string{"us-east-1", "eu-west-1"}; !reflect.DeepEqual(s.Regions, want) {
		t.Errorf("Regions = %v; want %v", s.Regions, want)
	}
	if s.Concurrency != 4 {
		t.Errorf("Concurrency = %d; want 4", s.Concurrency)
	}
	if s.Profile != "from-file" || s.RoleName != "AuditRole" || s.OutputDir != "evidence" {
		t.Errorf("unset flags must not override the config file; got %+v", s)
	}
}

func TestScanCmd_MergedOptionsAreValidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"scan", "--config", path, "--account-ids", "12345"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid scan options") {
		t.Fatalf("expected validation error; got %v", err)
	}
}

func TestScanCmd_MissingExplicitConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scan", "--config", filepath.Join(t.TempDir(), "absent.yaml")})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read error; got %v", err)
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV([]string{"CC1, CC2", "", " CC3 ,"})
	if want := []string{"CC1", "CC2", "CC3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("splitCSV = %v; want %v", got, want)
	}
}

// ── verify ────────────────────────────────────────────────────────────────────

func TestRunVerify_DetectsTampering(t *testing.T) {
	_, runDir, err := testScan(t, healthySessions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(runDir, report.ReportFile), []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err = runVerify(&buf, runDir)
	if err == nil {
		t.Fatal("tampered bundle must fail verification")
	}
	out := buf.String()
	if !strings.Contains(out, "FAIL  "+filepath.Join(runDir, report.ReportFile)) {
		t.Errorf("expected FAIL line for report.md\ngot:\n%s", out)
	}
	if !strings.Contains(out, "OK    "+filepath.Join(runDir, report.EvidenceFile)) {
		t.Errorf("untouched artifacts must still verify\ngot:\n%s", out)
	}
}

func TestRunVerify_SingleHashFile(t *testing.T) {
	_, runDir, err := testScan(t, healthySessions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := runVerify(&buf, filepath.Join(runDir, report.EvidenceFile+report.HashSuffix)); err != nil {
		t.Errorf("single hash file must verify: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected exactly one result line\ngot:\n%s", buf.String())
	}
}

// ── controls ──────────────────────────────────────────────────────────────────

func TestPrintControls_MarksDefaults(t *testing.T) {
	var buf bytes.Buffer
	printControls(&buf, controls.Default())
	out := buf.String()

	if !strings.Contains(out, "CC1 *") {
		t.Errorf("CC1 must be marked as a default control\ngot:\n%s", out)
	}
	if strings.Contains(out, "CC9 *") {
		t.Errorf("CC9 is not a default control\ngot:\n%s", out)
	}
	if !strings.Contains(out, models.SourceCloudTrail.DisplayName()) {
		t.Errorf("evidence sources must be listed\ngot:\n%s", out)
	}
}

// ── explain ───────────────────────────────────────────────────────────────────

func TestRunExplain(t *testing.T) {
	_, runDir, err := testScan(t, healthySessions(), nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runExplain(&buf, runDir, "cc6", "table", report.NewRecommender(nil)); err != nil {
		t.Fatalf("runExplain returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CONTROL CC6 (Logical and Physical Access)", "111111111111", "Root account MFA is not enabled."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}

	if err := runExplain(&bytes.Buffer{}, runDir, "CC99", "table", report.NewRecommender(nil)); err == nil {
		t.Error("unknown control must fail in table mode")
	}

	buf.Reset()
	if err := runExplain(&buf, runDir, "CC99", "json", report.NewRecommender(nil)); err != nil {
		t.Errorf("json mode reports unknown controls in the document: %v", err)
	}
	if !strings.Contains(buf.String(), `"error"`) {
		t.Errorf("expected error document; got %s", buf.String())
	}
}
