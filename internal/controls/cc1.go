package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// CC1 checks governance oversight: an organization with service control
// policies and at least one trail that is actively logging.
func CC1() Definition {
	return Definition{
		ID:    "CC1",
		Title: "Control Environment",
		Description: "The entity demonstrates a commitment to integrity, ethical values, " +
			"and appropriate governance oversight.",
		Sources:  []models.EvidenceSource{models.SourceOrganizations, models.SourceCloudTrail},
		Evaluate: evaluateCC1,
	}
}

func evaluateCC1(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	org := ec.Organizations(ctx)
	trails := ec.CloudTrail(ctx)
	f.consult(org)
	f.consult(trails)

	f.gapIf(!org.OrganizationPresent, "AWS Organizations is not enabled.")
	f.gapIf(org.SCPCount == 0, gapNoSCP)
	f.gapIf(trails.LoggingTrailCount == 0, gapNoLoggingTrail)
	return f
}
