package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// CC3 looks for the managed threat and vulnerability detection services.
// Each is expected in at least one of the scanned regions.
func CC3() Definition {
	return Definition{
		ID:    "CC3",
		Title: "Risk Assessment",
		Description: "The entity specifies objectives and identifies and assesses risks " +
			"to achieving those objectives.",
		Sources:  []models.EvidenceSource{models.SourceSecurityHub, models.SourceGuardDuty, models.SourceInspector},
		Evaluate: evaluateCC3,
	}
}

func evaluateCC3(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	hub := ec.SecurityHub(ctx)
	gd := ec.GuardDuty(ctx)
	insp := ec.Inspector(ctx)
	f.consult(hub)
	f.consult(gd)
	f.consult(insp)

	f.gapIf(hub.EnabledRegionCount == 0, "Security Hub is not enabled in the provided regions.")
	f.gapIf(gd.EnabledDetectorCount == 0, "GuardDuty is not enabled in the provided regions.")
	f.gapIf(insp.CoverageRegionCount == 0, "Inspector coverage not detected in the provided regions.")
	return f
}
