package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

func CC4() Definition {
	return Definition{
		ID:    "CC4",
		Title: "Monitoring Activities",
		Description: "The entity selects, develops, and performs ongoing evaluations to " +
			"ascertain whether the components of internal control are present and functioning.",
		Sources:  []models.EvidenceSource{models.SourceConfigRules, models.SourceCloudWatch},
		Evaluate: evaluateCC4,
	}
}

func evaluateCC4(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	rules := ec.ConfigRules(ctx)
	cw := ec.CloudWatch(ctx)
	f.consult(rules)
	f.consult(cw)

	f.gapIf(rules.RuleCount == 0, gapNoConfigRules)
	f.gapIf(rules.NoncompliantCount > 0, "Non-compliant AWS Config rules detected.")
	f.gapIf(cw.AlarmCount == 0, gapNoAlarms)
	return f
}
