package controls

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// CC8 accepts either CodePipeline or CodeBuild as evidence of a managed
// change pipeline.
func CC8() Definition {
	return Definition{
		ID:    "CC8",
		Title: "Change Management",
		Description: "The entity authorizes, designs, develops, tests, approves and implements " +
			"changes to infrastructure and software.",
		Sources:  []models.EvidenceSource{models.SourceCodePipeline, models.SourceCodeBuild, models.SourceCloudTrail},
		Evaluate: evaluateCC8,
	}
}

func evaluateCC8(ctx context.Context, ec *evidence.Context) Findings {
	var f Findings
	pipelines := ec.CodePipeline(ctx)
	builds := ec.CodeBuild(ctx)
	trails := ec.CloudTrail(ctx)
	f.consult(pipelines)
	f.consult(builds)
	f.consult(trails)

	f.gapIf(pipelines.PipelineCount == 0 && builds.ProjectCount == 0, "No CodePipeline or CodeBuild projects detected.")
	f.gapIf(trails.LoggingTrailCount == 0, gapNoLoggingTrail)
	return f
}
