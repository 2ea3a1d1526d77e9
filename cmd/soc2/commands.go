package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/config"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/render"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/report"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "soc2",
		Short: "SOC 2 evidence scanner for AWS accounts",
		Long: "soc2 collects read-only evidence from one or many AWS accounts, evaluates\n" +
			"SOC 2 common criteria controls, and writes a hashed evidence bundle.",
		SilenceUsage: true,
	}
	root.AddCommand(newScanCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newControlsCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), version.Info())
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.Get())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <run-dir|file.sha256>",
		Short: "Verify the SHA-256 digests of a run's artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), args[0])
		},
	}
}

// runVerify prints one line per hash file and fails when any artifact is
// missing or modified.
func runVerify(w io.Writer, path string) error {
	results, err := report.VerifyPath(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	failed := 0
	for _, r := range results {
		if r.OK {
			fmt.Fprintf(w, "OK    %s\n", r.Target)
			continue
		}
		failed++
		fmt.Fprintf(w, "FAIL  %s (%s)\n", r.Target, r.Problem)
	}
	if failed > 0 {
		return fmt.Errorf("verification failed: %d of %d artifacts", failed, len(results))
	}
	return nil
}

func newControlsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "controls",
		Short: "List the built-in control catalogue",
		Run: func(cmd *cobra.Command, args []string) {
			printControls(cmd.OutOrStdout(), controls.Default())
		},
	}
}

// printControls renders the catalogue; controls in the default scan set are
// marked with '*'.
func printControls(w io.Writer, cat *controls.Catalogue) {
	defaults := make(map[string]bool, len(controls.DefaultControlIDs))
	for _, id := range controls.DefaultControlIDs {
		defaults[id] = true
	}

	fmt.Fprintf(w, "%-9s  %-28s  %s\n", "CONTROL", "TITLE", "EVIDENCE SOURCES")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, d := range cat.All() {
		id := d.ID
		if defaults[id] {
			id += " *"
		}
		names := make([]string, len(d.Sources))
		for i, src := range d.Sources {
			names[i] = src.DisplayName()
		}
		fmt.Fprintf(w, "%-9s  %-28s  %s\n", id, d.Title, strings.Join(names, ", "))
	}
	fmt.Fprintln(w, "\n* scanned when --controls is not given")
}

func newExplainCmd() *cobra.Command {
	var runDir, format, configPath string

	cmd := &cobra.Command{
		Use:   "explain <control-id>",
		Short: "Explain one control's verdicts and recommendations from a past run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFileLoader(configPath).Load()
			if err != nil {
				return err
			}
			return runExplain(cmd.OutOrStdout(), runDir, args[0], format, report.NewRecommender(cfg.Recommendations))
		},
	}
	cmd.Flags().StringVar(&runDir, "run", "", "Run directory or evidence.json to read (required)")
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	cmd.Flags().StringVar(&configPath, "config", "", "Config file supplying recommendation overrides")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

// runExplain renders one control of a stored run. An unknown control is an
// error in table mode and an {"error": ...} document in JSON mode.
func runExplain(w io.Writer, runDir, controlID, format string, rec *report.Recommender) error {
	run, err := report.LoadRun(runDir)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	exp := render.ExplainControl(strings.ToUpper(controlID), controls.Default(), run, rec)

	if format == "json" {
		return render.WriteExplainJSON(w, exp, strings.ToUpper(controlID))
	}
	if exp == nil {
		return fmt.Errorf("no control %s found in run %s", controlID, run.RunID)
	}
	render.RenderControlExplanation(w, *exp)
	return nil
}

// newLogger builds the CLI's text logger on w. Verbose lowers the level to
// debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// splitCSV splits comma-separated values and drops blanks.
func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
