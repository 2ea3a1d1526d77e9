package models

import "time"

// ControlStatus is the verdict of one control evaluation.
type ControlStatus string

const (
	StatusPass           ControlStatus = "pass"
	StatusFail           ControlStatus = "fail"
	StatusNeedsReview    ControlStatus = "needs_review"
	StatusNotImplemented ControlStatus = "not_implemented"
)

// ControlResult is the immutable outcome of evaluating one control against
// one account's evidence.
type ControlResult struct {
	ControlID       string                            `json:"control_id"`
	Title           string                            `json:"title,omitempty"`
	Status          ControlStatus                     `json:"status"`
	EvidenceSources []EvidenceSource                  `json:"evidence_sources"`
	CollectedAt     time.Time                         `json:"collected_at"`
	Gaps            []string                          `json:"gaps"`
	Errors          []string                          `json:"errors"`
	Data            map[EvidenceSource]EvidenceRecord `json:"data"`
}

// NoncompliantCount returns the number of non-compliant AWS Config rules in
// the evidence consulted by this control, or 0 when it did not consult them.
func (r ControlResult) NoncompliantCount() int {
	rec, ok := r.Data[SourceConfigRules].(*ConfigRulesEvidence)
	if !ok || rec == nil {
		return 0
	}
	return rec.NoncompliantCount
}

// AccountIdentity is the resolved caller identity of a session.
// IdentityError is set instead of the other fields when resolution failed.
type AccountIdentity struct {
	AccountID     string `json:"account_id,omitempty"`
	CallerARN     string `json:"caller_arn,omitempty"`
	IdentityError string `json:"identity_error,omitempty"`
}

// AccountResult holds every control result for one scanned account.
// When role assumption fails IdentityError carries the failure and Evidence
// is empty.
type AccountResult struct {
	AccountID     string          `json:"account_id"`
	AccountName   string          `json:"account_name,omitempty"`
	CallerARN     string          `json:"caller_arn,omitempty"`
	IdentityError string          `json:"identity_error,omitempty"`
	Evidence      []ControlResult `json:"evidence"`
}

// Failed reports whether the account could not be scanned at all.
func (a AccountResult) Failed() bool {
	return a.IdentityError != "" && len(a.Evidence) == 0
}

// ScanOutcome is what the orchestrator hands to report assembly: the resolved
// scope of the run and the per-account results in canonical order.
type ScanOutcome struct {
	Controls          []string
	Regions           []string
	Identity          AccountIdentity
	OrganizationError string
	Accounts          []AccountResult
}

// RunSummary aggregates control verdicts across every account of a run.
// NotImplemented results are counted separately and never contribute to
// Evaluated, so an unknown control neither passes nor fails the run.
type RunSummary struct {
	AccountCount       int `json:"account_count"`
	FailedAccountCount int `json:"failed_account_count"`
	ControlResultCount int `json:"control_result_count"`
	Pass               int `json:"pass"`
	Fail               int `json:"fail"`
	NeedsReview        int `json:"needs_review"`
	NotImplemented     int `json:"not_implemented"`
	// Evaluated counts results with a pass, fail or needs_review verdict.
	Evaluated int `json:"evaluated"`
	// Determined counts results with a trustworthy pass or fail verdict.
	Determined int `json:"determined"`
}

// RunPayload is the root artifact of a run, written as evidence.json.
type RunPayload struct {
	RunID             string          `json:"run_id"`
	ScanID            string          `json:"scan_id"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Controls          []string        `json:"controls"`
	Regions           []string        `json:"regions"`
	AccountID         string          `json:"account_id,omitempty"`
	CallerARN         string          `json:"caller_arn,omitempty"`
	IdentityError     string          `json:"identity_error,omitempty"`
	OrganizationError string          `json:"organization_error,omitempty"`
	Summary           RunSummary      `json:"summary"`
	Accounts          []AccountResult `json:"accounts"`
}
