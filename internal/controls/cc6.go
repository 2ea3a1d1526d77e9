package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// CC6 covers account-level access hygiene. Only the root MFA flag and the
// presence of a password policy are checked, not the policy's content.
func CC6() Definition {
	return Definition{
		ID:    "CC6",
		Title: "Logical and Physical Access",
		Description: "The entity implements logical and physical access controls to protect " +
			"systems and data from unauthorized access.",
		Sources:  []models.EvidenceSource{models.SourceIAM, models.SourceAccessAnalyzer, models.SourceCloudTrail},
		Evaluate: evaluateCC6,
	}
}

func evaluateCC6(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	iam := ec.IAM(ctx)
	aa := ec.AccessAnalyzer(ctx)
	trails := ec.CloudTrail(ctx)
	f.consult(iam)
	f.consult(aa)
	f.consult(trails)

	f.gapIf(!iam.RootMFAEnabled, "Root account MFA is not enabled.")
	f.gapIf(!iam.PasswordPolicyPresent, "IAM password policy is missing.")
	f.gapIf(aa.ActiveAnalyzerCount == 0, "No active IAM Access Analyzer found.")
	f.gapIf(trails.LoggingTrailCount == 0, gapNoLoggingTrail)
	return f
}
