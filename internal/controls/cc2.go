package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

func CC2() Definition {
	return Definition{
		ID:    "CC2",
		Title: "Communication and Information",
		Description: "The entity obtains or generates and communicates relevant information " +
			"to support internal control.",
		Sources:  []models.EvidenceSource{models.SourceCloudWatch, models.SourceVPC, models.SourceCloudTrail},
		Evaluate: evaluateCC2,
	}
}

func evaluateCC2(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	cw := ec.CloudWatch(ctx)
	vpc := ec.VPC(ctx)
	trails := ec.CloudTrail(ctx)
	f.consult(cw)
	f.consult(vpc)
	f.consult(trails)

	f.gapIf(cw.LogGroupCount == 0, "No CloudWatch log groups detected.")
	f.gapIf(cw.AlarmCount == 0, gapNoAlarms)
	f.gapIf(vpc.ActiveFlowLogCount == 0, "No active VPC flow logs detected.")
	f.gapIf(trails.LoggingTrailCount == 0, gapNoLoggingTrail)
	return f
}
