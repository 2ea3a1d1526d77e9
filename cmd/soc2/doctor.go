package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/config"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// DoctorResult is the structured output of soc2 doctor. It can be serialised
// to JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		Identity    bool   `json:"identity_ok"`
		AccountID   string `json:"account_id,omitempty"`
		CallerARN   string `json:"caller_arn,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	// Organizations is advisory: single-account scans work without it.
	Organizations struct {
		Accessible   bool   `json:"accessible"`
		AccountCount int    `json:"account_count,omitempty"`
		Error        string `json:"error,omitempty"`
	} `json:"organizations"`

	Config struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"config"`

	Profiles []string `json:"profiles"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			configPath, _ := cmd.Flags().GetString("config")
			result, err := runDoctor(
				cmd.Context(),
				common.NewDefaultSessionProvider(),
				config.NewFileLoader(configPath),
				cmd.OutOrStdout(),
				format,
				profile,
			)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main's stderr path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("config", "", "Config file to validate (default: ~/.config/soc2-scanner/config.yaml)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures. Callers must inspect
// result.OverallHealthy to decide the exit status.
func runDoctor(ctx context.Context, sessions common.SessionProvider, loader config.Loader, w io.Writer, format, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, sessions, loader, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering.
func collectDoctorResult(ctx context.Context, sessions common.SessionProvider, loader config.Loader, profile string) DoctorResult {
	var result DoctorResult

	// AWS: load session → STS identity → Organizations access check.
	result.AWS.Profile = profile
	sess, err := sessions.LoadSession(ctx, profile, "")
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		ident, err := sessions.Identity(ctx, sess)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.Identity = true
			result.AWS.AccountID = ident.AccountID
			result.AWS.CallerARN = ident.ARN
			sess.AccountID = ident.AccountID

			accounts, err := sessions.ListActiveAccounts(ctx, sess)
			if err != nil {
				result.Organizations.Error = err.Error()
			} else {
				result.Organizations.Accessible = true
				result.Organizations.AccountCount = len(accounts)
			}
		}
	}

	// Config: the file is optional; when present it must parse and validate.
	result.Config.Path = loader.ConfigPath()
	if result.Config.Path != "" {
		_, statErr := os.Stat(result.Config.Path)
		switch {
		case statErr == nil:
			result.Config.Present = true
			if _, err := loader.Load(); err != nil {
				result.Config.Errors = splitJoined(err)
			} else {
				result.Config.Valid = true
			}
		case !errors.Is(statErr, os.ErrNotExist):
			result.Config.Present = true
			result.Config.Errors = []string{statErr.Error()}
		}
	}

	profiles, err := common.ListProfiles()
	if err == nil {
		result.Profiles = profiles
	}
	if result.Profiles == nil {
		result.Profiles = []string{}
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.Identity &&
		(!result.Config.Present || result.Config.Valid)

	return result
}

// splitJoined flattens an errors.Join result into one message per line.
func splitJoined(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	switch {
	case !result.AWS.Credentials:
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Organizations", "SKIPPED", "")
	case !result.AWS.Identity:
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "FAIL", result.AWS.Error)
		doctorPrint(w, "Organizations", "SKIPPED", "")
	default:
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.Organizations.Accessible {
			doctorPrint(w, "Organizations", "OK", fmt.Sprintf("%d active accounts", result.Organizations.AccountCount))
		} else {
			doctorPrint(w, "Organizations", "UNAVAILABLE", result.Organizations.Error)
		}
	}

	fmt.Fprintln(w, "\nConfig:")
	if !result.Config.Present {
		doctorPrint(w, "config.yaml present", "Not found (optional)", result.Config.Path)
	} else {
		doctorPrint(w, "config.yaml present", "YES", result.Config.Path)
		if result.Config.Valid {
			doctorPrint(w, "Config valid", "OK", "")
		} else {
			for _, e := range result.Config.Errors {
				doctorPrint(w, "Config valid", "FAIL", e)
			}
		}
	}

	fmt.Fprintln(w, "\nProfiles:")
	if len(result.Profiles) == 0 {
		doctorPrint(w, "Configured", "none", "")
	} else {
		doctorPrint(w, "Configured", strings.Join(result.Profiles, ", "), "")
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
