// Package render provides presentation-layer helpers for soc2 CLI output.
// It is a pure rendering package: no AWS calls, no control evaluation.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/report"
)

// Advice pairs a gap or error text with its recommendation.
type Advice struct {
	Text           string `json:"text"`
	Recommendation string `json:"recommendation"`
}

// AccountExplanation is one account's verdict for the explained control.
type AccountExplanation struct {
	AccountID     string               `json:"account_id"`
	AccountName   string               `json:"account_name,omitempty"`
	Status        models.ControlStatus `json:"status,omitempty"`
	IdentityError string               `json:"identity_error,omitempty"`
	Gaps          []Advice             `json:"gaps"`
	Errors        []Advice             `json:"errors"`
}

// ControlExplanation is the breakdown of one control across a stored run.
type ControlExplanation struct {
	RunID       string               `json:"run_id"`
	ControlID   string               `json:"control_id"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Sources     []string             `json:"evidence_sources"`
	Accounts    []AccountExplanation `json:"accounts"`
}

// ExplainControl builds the explanation of controlID from run. The catalogue
// supplies the description; a control unknown to it is still explained when
// the run contains results for it. Nil is returned when neither knows it.
func ExplainControl(controlID string, cat *controls.Catalogue, run *report.StoredRun, rec *report.Recommender) *ControlExplanation {
	exp := &ControlExplanation{RunID: run.RunID, ControlID: controlID, Sources: []string{}}
	def, known := cat.Lookup(controlID)
	if known {
		exp.Title = def.Title
		exp.Description = def.Description
		for _, src := range def.Sources {
			exp.Sources = append(exp.Sources, src.DisplayName())
		}
	}

	found := false
	for _, acct := range run.Accounts {
		ae := AccountExplanation{
			AccountID:     acct.AccountID,
			AccountName:   acct.AccountName,
			IdentityError: acct.IdentityError,
			Gaps:          []Advice{},
			Errors:        []Advice{},
		}
		for _, res := range acct.Evidence {
			if res.ControlID != controlID {
				continue
			}
			found = true
			ae.Status = res.Status
			if exp.Title == "" {
				exp.Title = res.Title
			}
			for _, g := range res.Gaps {
				ae.Gaps = append(ae.Gaps, Advice{Text: g, Recommendation: rec.ForGap(g)})
			}
			for _, e := range res.Errors {
				ae.Errors = append(ae.Errors, Advice{Text: e, Recommendation: rec.ForError(e)})
			}
		}
		exp.Accounts = append(exp.Accounts, ae)
	}

	if !known && !found {
		return nil
	}
	if exp.Accounts == nil {
		exp.Accounts = []AccountExplanation{}
	}
	return exp
}

// RenderControlExplanation writes a structured breakdown of one control to w.
//
// Example output:
//
//	CONTROL CC6 (Logical and Physical Access)
//	Description: The entity implements logical and physical access controls ...
//	Evidence: IAM → IAM Access Analyzer → CloudTrail
//
//	Accounts (2):
//
//	  ✗ 111111111111 (prod): fail
//	    - Root account MFA is not enabled.
//	      → Enable MFA on the root user and store the device securely.
//
//	  ! 222222222222: not scanned (assume role: AccessDenied)
func RenderControlExplanation(w io.Writer, exp ControlExplanation) {
	if exp.Title != "" {
		fmt.Fprintf(w, "CONTROL %s (%s)\n", exp.ControlID, exp.Title)
	} else {
		fmt.Fprintf(w, "CONTROL %s\n", exp.ControlID)
	}
	if exp.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", exp.Description)
	}
	if len(exp.Sources) > 0 {
		fmt.Fprintf(w, "Evidence: %s\n", strings.Join(exp.Sources, " → "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Accounts (%d):\n", len(exp.Accounts))
	for _, a := range exp.Accounts {
		fmt.Fprintln(w)
		label := a.AccountID
		if a.AccountName != "" {
			label += " (" + a.AccountName + ")"
		}
		if a.Status == "" {
			reason := a.IdentityError
			if reason == "" {
				reason = "control not evaluated"
			}
			fmt.Fprintf(w, "  ! %s: not scanned (%s)\n", label, reason)
			continue
		}

		fmt.Fprintf(w, "  %s %s: %s\n", statusMarker(a.Status), label, a.Status)
		for _, g := range a.Gaps {
			fmt.Fprintf(w, "    - %s\n", g.Text)
			fmt.Fprintf(w, "      → %s\n", g.Recommendation)
		}
		for _, e := range a.Errors {
			fmt.Fprintf(w, "    ! %s\n", e.Text)
			fmt.Fprintf(w, "      → %s\n", e.Recommendation)
		}
	}
}

func statusMarker(s models.ControlStatus) string {
	switch s {
	case models.StatusPass:
		return "✓"
	case models.StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// WriteExplainJSON writes the explanation as indented JSON to w.
//
// When exp is non-nil, the output is:
//
//	{"control": { ...explanation fields... }}
//
// When exp is nil (control unknown to both the catalogue and the run):
//
//	{"error": "No control CC42 found in run"}
func WriteExplainJSON(w io.Writer, exp *ControlExplanation, controlID string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if exp == nil {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No control %s found in run", controlID),
		})
	}
	return enc.Encode(map[string]any{
		"control": exp,
	})
}
