package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// CC9 aggregates data-protection signals. KMS rotation is judged on the
// sampled keys only, and only when customer-managed keys were sampled.
func CC9() Definition {
	return Definition{
		ID:    "CC9",
		Title: "Risk Mitigation",
		Description: "The entity identifies, selects, and develops risk mitigation activities " +
			"for risks arising from potential business disruptions.",
		Sources: []models.EvidenceSource{
			models.SourceKMS, models.SourceWAF, models.SourceS3, models.SourceRDS,
		},
		Evaluate: evaluateCC9,
	}
}

func evaluateCC9(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	kms := ec.KMS(ctx)
	waf := ec.WAF(ctx)
	s3 := ec.S3(ctx)
	rds := ec.RDS(ctx)
	f.consult(kms)
	f.consult(waf)
	f.consult(s3)
	f.consult(rds)

	f.gapIf(kms.CustomerManagedKeyCount > 0 && kms.CustomerManagedRotationCount == 0,
		"No customer-managed KMS keys have automatic rotation enabled.")
	f.gapIf(waf.WebACLCount == 0, "No regional WAF web ACLs detected.")
	f.gapIf(s3.UnencryptedBucketCount > 0, "S3 buckets without default encryption detected.")
	f.gapIf(rds.UnencryptedInstanceCount > 0, "RDS instances without storage encryption detected.")
	return f
}
