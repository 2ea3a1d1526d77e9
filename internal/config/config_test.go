package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ── loader ───────────────────────────────────────────────────────────────────

func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `
version: 1
scan:
  profile: audit
  regions: [us-east-1, eu-west-1]
  controls: [CC1, CC6]
  account_ids: ["111111111111"]
  external_ids:
    "111111111111": ext-1
  concurrency: 4
  format: json
recommendations:
  "No Service Control Policies detected.": "Apply the landing zone SCPs."
`)

	cfg, err := NewFileLoader(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scan.Profile != "audit" {
		t.Errorf("Profile = %q; want audit", cfg.Scan.Profile)
	}
	if len(cfg.Scan.Regions) != 2 || cfg.Scan.Regions[1] != "eu-west-1" {
		t.Errorf("Regions = %v", cfg.Scan.Regions)
	}
	if cfg.Scan.ExternalIDs["111111111111"] != "ext-1" {
		t.Errorf("ExternalIDs = %v", cfg.Scan.ExternalIDs)
	}
	if cfg.Scan.RoleName != DefaultRoleName {
		t.Errorf("RoleName = %q; want default %q", cfg.Scan.RoleName, DefaultRoleName)
	}
	if cfg.Scan.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q; want default %q", cfg.Scan.OutputDir, DefaultOutputDir)
	}
	if cfg.Recommendations["No Service Control Policies detected."] != "Apply the landing zone SCPs." {
		t.Errorf("Recommendations = %v", cfg.Recommendations)
	}
}

func TestLoad_DefaultPathMissingIsNotAnError(t *testing.T) {
	l := &FileLoader{path: filepath.Join(t.TempDir(), "absent.yaml")}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scan.Format != "table" {
		t.Errorf("Format = %q; want table", cfg.Scan.Format)
	}
}

func TestLoad_ExplicitPathMissingIsAnError(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "scan:\n  regoins: [us-east-1]\n")
	_, err := NewFileLoader(path).Load()
	if err == nil || !strings.Contains(err.Error(), "regoins") {
		t.Fatalf("expected unknown field error; got %v", err)
	}
}

func TestLoad_InvalidValuesReportedTogether(t *testing.T) {
	path := writeConfig(t, `
version: 2
scan:
  account_ids: ["1234"]
  concurrency: -1
`)
	_, err := NewFileLoader(path).Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"version", "scan.account_ids[0]", "scan.concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != 0 || cfg.Scan.Profile != "" {
		t.Errorf("expected zero config; got %+v", cfg)
	}
}

func TestNewFileLoader_DefaultPath(t *testing.T) {
	l := NewFileLoader("")
	if home, err := os.UserHomeDir(); err == nil {
		want := filepath.Join(home, ".config", "soc2-scanner", "config.yaml")
		if l.ConfigPath() != want {
			t.Errorf("ConfigPath = %q; want %q", l.ConfigPath(), want)
		}
	}
}

// ── validator ────────────────────────────────────────────────────────────────

func TestValidate_ValidMinimalConfig(t *testing.T) {
	if errs := Validate(&Config{}); len(errs) != 0 {
		t.Errorf("expected no errors; got %v", errs)
	}
}

func TestValidate_Nil(t *testing.T) {
	if errs := Validate(nil); len(errs) != 1 {
		t.Errorf("expected one error for nil config; got %v", errs)
	}
}

func TestValidate_RoleRequiredForCrossAccount(t *testing.T) {
	tests := []struct {
		name    string
		scan    ScanConfig
		wantErr bool
	}{
		{"single account", ScanConfig{}, false},
		{"explicit ids with role", ScanConfig{AccountIDs: []string{"111111111111"}, RoleName: "Audit"}, false},
		{"explicit ids without role", ScanConfig{AccountIDs: []string{"111111111111"}}, true},
		{"all accounts without role", ScanConfig{AllAccounts: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&Config{Scan: tt.scan})
			if got := len(errs) > 0; got != tt.wantErr {
				t.Errorf("errors = %v; wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_ExternalIDKeys(t *testing.T) {
	errs := Validate(&Config{Scan: ScanConfig{ExternalIDs: map[string]string{
		"zzz":          "a",
		"111111111111": "b",
		"abc":          "c",
	}}})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors; got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "external_ids.abc") {
		t.Errorf("errors must be sorted by key; got %v", errs)
	}
}

func TestValidate_Format(t *testing.T) {
	for _, f := range []string{"", "table", "json"} {
		if errs := Validate(&Config{Scan: ScanConfig{Format: f}}); len(errs) != 0 {
			t.Errorf("format %q: unexpected errors %v", f, errs)
		}
	}
	if errs := Validate(&Config{Scan: ScanConfig{Format: "xml"}}); len(errs) != 1 {
		t.Errorf("format xml: expected one error; got %v", errs)
	}
}
