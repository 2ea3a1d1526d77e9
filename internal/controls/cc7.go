package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

func CC7() Definition {
	return Definition{
		ID:    "CC7",
		Title: "System Operations",
		Description: "The entity detects and monitors system operations to identify " +
			"anomalies and security events.",
		Sources:  []models.EvidenceSource{models.SourceConfig, models.SourceSSM, models.SourceCloudTrail},
		Evaluate: evaluateCC7,
	}
}

func evaluateCC7(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	recorders := ec.ConfigRecorders(ctx)
	ssm := ec.SSM(ctx)
	trails := ec.CloudTrail(ctx)
	f.consult(recorders)
	f.consult(ssm)
	f.consult(trails)

	f.gapIf(recorders.RecordingCount == 0, "AWS Config is not recording in any provided region.")
	f.gapIf(ssm.ManagedInstanceCount == 0, "No SSM managed instances detected.")
	f.gapIf(trails.LoggingTrailCount == 0, gapNoLoggingTrail)
	return f
}
