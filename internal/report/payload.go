// Package report turns a scan outcome into the on-disk evidence bundle:
// canonical evidence.json, a CSV summary, a Markdown report, and a .sha256
// sidecar for each of them.
package report

import (
	"time"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// runIDLayout renders the UTC generation time inside the run id.
const runIDLayout = "20060102T150405Z"

// RunID derives the run directory name from the generation time.
func RunID(generatedAt time.Time) string {
	return "scan-" + generatedAt.UTC().Format(runIDLayout)
}

// BuildPayload assembles the root evidence document for outcome.
func BuildPayload(outcome *models.ScanOutcome, generatedAt time.Time, scanID string) models.RunPayload {
	accounts := outcome.Accounts
	if accounts == nil {
		accounts = []models.AccountResult{}
	}
	return models.RunPayload{
		RunID:             RunID(generatedAt),
		ScanID:            scanID,
		GeneratedAt:       generatedAt.UTC(),
		Controls:          nonNil(outcome.Controls),
		Regions:           nonNil(outcome.Regions),
		AccountID:         outcome.Identity.AccountID,
		CallerARN:         outcome.Identity.CallerARN,
		IdentityError:     outcome.Identity.IdentityError,
		OrganizationError: outcome.OrganizationError,
		Summary:           Summarize(accounts),
		Accounts:          accounts,
	}
}

// Summarize counts verdicts across every account. not_implemented results
// are counted but excluded from Evaluated and Determined.
func Summarize(accounts []models.AccountResult) models.RunSummary {
	s := models.RunSummary{AccountCount: len(accounts)}
	for _, acct := range accounts {
		if acct.Failed() {
			s.FailedAccountCount++
		}
		for _, res := range acct.Evidence {
			s.ControlResultCount++
			switch res.Status {
			case models.StatusPass:
				s.Pass++
			case models.StatusFail:
				s.Fail++
			case models.StatusNeedsReview:
				s.NeedsReview++
			case models.StatusNotImplemented:
				s.NotImplemented++
			}
		}
	}
	s.Evaluated = s.Pass + s.Fail + s.NeedsReview
	s.Determined = s.Pass + s.Fail
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
