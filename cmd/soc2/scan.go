package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/config"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/engine"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/output"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
	awsevidence "github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/report"
)

// scanDeps are the AWS-facing collaborators of a scan. Tests replace them
// with in-memory doubles.
type scanDeps struct {
	sessions  common.SessionProvider
	collector evidence.Collector
	// assembler overrides report assembly when non-nil.
	assembler *report.Assembler
}

type scanFlags struct {
	configPath  string
	profile     string
	regions     []string
	controls    []string
	outputDir   string
	accountIDs  []string
	allAccounts bool
	roleName    string
	externalID  string
	concurrency int
	format      string
	verbose     bool
}

func newScanCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Collect evidence and evaluate SOC 2 controls",
		Long: "scan resolves the target accounts, collects read-only evidence per account,\n" +
			"evaluates the requested controls and writes evidence.json,\n" +
			"evidence_summary.csv and report.md, each with a .sha256 file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFileLoader(f.configPath).Load()
			if err != nil {
				return err
			}
			mergeScanFlags(cmd, &cfg.Scan, f)
			if errs := config.Validate(cfg); len(errs) > 0 {
				return fmt.Errorf("invalid scan options: %w", errors.Join(errs...))
			}

			deps := scanDeps{
				sessions:  common.NewDefaultSessionProvider(),
				collector: awsevidence.NewDefaultCollector(),
			}
			logger := newLogger(cmd.ErrOrStderr(), f.verbose)
			return runScan(cmd.Context(), deps, cfg, cmd.OutOrStdout(), logger)
		},
	}

	bindScanFlags(cmd, &f)
	return cmd
}

func bindScanFlags(cmd *cobra.Command, f *scanFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Config file (default: ~/.config/soc2-scanner/config.yaml)")
	fl.StringVar(&f.profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	fl.StringSliceVar(&f.regions, "regions", nil, "AWS region(s) to scan (default: the profile's region)")
	fl.StringSliceVar(&f.controls, "controls", nil, "Control IDs to evaluate (default: CC1-CC8)")
	fl.StringVar(&f.outputDir, "output", config.DefaultOutputDir, "Directory that receives the run directory")
	fl.StringSliceVar(&f.accountIDs, "account-ids", nil, "Account IDs to scan via role assumption")
	fl.BoolVar(&f.allAccounts, "all-accounts", false, "Scan every ACTIVE account of the organization")
	fl.StringVar(&f.roleName, "role-name", config.DefaultRoleName, "Role assumed in target accounts")
	fl.StringVar(&f.externalID, "external-id", "", "External ID passed when assuming the role")
	fl.IntVar(&f.concurrency, "concurrency", 1, "Accounts scanned in parallel")
	fl.StringVar(&f.format, "format", "table", `Console output: "table" or "json"`)
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log collection progress to stderr")
}

// mergeScanFlags copies every flag the user set explicitly over the config
// file values. Unset flags leave the file (or its defaults) in place.
func mergeScanFlags(cmd *cobra.Command, s *config.ScanConfig, f scanFlags) {
	changed := cmd.Flags().Changed
	if changed("profile") {
		s.Profile = f.profile
	}
	if changed("regions") {
		s.Regions = splitCSV(f.regions)
	}
	if changed("controls") {
		s.Controls = splitCSV(f.controls)
	}
	if changed("output") {
		s.OutputDir = f.outputDir
	}
	if changed("account-ids") {
		s.AccountIDs = splitCSV(f.accountIDs)
	}
	if changed("all-accounts") {
		s.AllAccounts = f.allAccounts
	}
	if changed("role-name") {
		s.RoleName = f.roleName
	}
	if changed("external-id") {
		s.ExternalID = f.externalID
	}
	if changed("concurrency") {
		s.Concurrency = f.concurrency
	}
	if changed("format") {
		s.Format = f.format
	}
}

// scanOptions maps the merged configuration onto engine options.
func scanOptions(s config.ScanConfig) engine.ScanOptions {
	return engine.ScanOptions{
		Controls:    s.Controls,
		Regions:     s.Regions,
		Profile:     s.Profile,
		OutputDir:   s.OutputDir,
		AccountIDs:  s.AccountIDs,
		AllAccounts: s.AllAccounts,
		RoleName:    s.RoleName,
		ExternalID:  s.ExternalID,
		ExternalIDs: s.ExternalIDs,
		Concurrency: s.Concurrency,
	}
}

// runScan executes one scan, writes the evidence bundle and prints the
// console view to w. Per-account failures do not fail the command.
func runScan(ctx context.Context, deps scanDeps, cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	eng := engine.NewDefaultEngine(
		deps.sessions,
		deps.collector,
		controls.NewEvaluator(controls.Default()),
		logger,
	)

	outcome, err := eng.RunScan(ctx, scanOptions(cfg.Scan))
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	asm := deps.assembler
	if asm == nil {
		asm = report.NewAssembler(cfg.Scan.OutputDir, report.NewRecommender(cfg.Recommendations), logger)
	}
	artifacts, err := asm.Assemble(outcome)
	if err != nil {
		return fmt.Errorf("write evidence bundle: %w", err)
	}

	if cfg.Scan.Format == "json" {
		return printPayloadJSON(w, artifacts.Payload)
	}
	printScanTable(w, artifacts)
	return nil
}

func printPayloadJSON(w io.Writer, payload models.RunPayload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printScanTable(w io.Writer, artifacts *report.Artifacts) {
	p := artifacts.Payload

	fmt.Fprintf(w, "Run:      %s\n", p.RunID)
	if p.IdentityError != "" {
		fmt.Fprintf(w, "Identity: unresolved (%s)\n", p.IdentityError)
	} else {
		fmt.Fprintf(w, "Identity: %s (%s)\n", p.AccountID, p.CallerARN)
	}
	if p.OrganizationError != "" {
		fmt.Fprintf(w, "Organization: %s\n", p.OrganizationError)
	}
	output.RenderSummary(w, p.Summary)
	fmt.Fprintln(w)

	output.RenderTable(w, p.Accounts, output.TableOptions{
		IncludeName: true,
		IncludeGaps: true,
	})

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Artifacts written to %s\n", artifacts.RunDir)
	for _, path := range artifacts.Paths {
		fmt.Fprintf(w, "  %s\n", path)
	}
}
