package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

func CC5() Definition {
	return Definition{
		ID:    "CC5",
		Title: "Control Activities",
		Description: "The entity selects and develops control activities that mitigate risks " +
			"to achieving objectives.",
		Sources:  []models.EvidenceSource{models.SourceBackup, models.SourceOrganizations, models.SourceConfigRules},
		Evaluate: evaluateCC5,
	}
}

func evaluateCC5(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	backup := ec.Backup(ctx)
	org := ec.Organizations(ctx)
	rules := ec.ConfigRules(ctx)
	f.consult(backup)
	f.consult(org)
	f.consult(rules)

	f.gapIf(backup.BackupPlanCount == 0, "No AWS Backup plans detected.")
	f.gapIf(org.SCPCount == 0, gapNoSCP)
	f.gapIf(rules.RuleCount == 0, gapNoConfigRules)
	return f
}
