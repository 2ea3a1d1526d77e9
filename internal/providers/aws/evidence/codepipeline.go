package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// CodePipeline lists pipelines and reads the latest execution status of each
// pipeline's first stage.
func (c *DefaultCollector) CodePipeline(ctx context.Context, sess *common.Session, regions []string) *models.CodePipelineEvidence {
	pipelines, errs := collectRegions(ctx, c, sess, regions, collectRegionPipelines)

	return &models.CodePipelineEvidence{
		PipelineCount:   len(pipelines),
		PipelinesSample: sample(pipelines, models.SampleLimit),
		RecordErrors:    models.NewRecordErrors(errs),
	}
}

func collectRegionPipelines(ctx context.Context, cl *clients, region string) ([]models.Pipeline, []string) {
	var names []string
	pager := codepipeline.NewListPipelinesPaginator(cl.CodePipeline, &codepipeline.ListPipelinesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, []string{formatError("codepipeline", region, err)}
		}
		for _, p := range page.Pipelines {
			names = append(names, aws.ToString(p.Name))
		}
	}

	var errs []string
	pipelines := make([]models.Pipeline, 0, len(names))
	for _, name := range names {
		p := models.Pipeline{Name: name, Region: region}
		state, err := cl.CodePipeline.GetPipelineState(ctx, &codepipeline.GetPipelineStateInput{Name: aws.String(name)})
		if err != nil {
			errs = append(errs, formatError("codepipeline", region, err))
		} else if len(state.StageStates) > 0 && state.StageStates[0].LatestExecution != nil {
			p.LatestExecutionStatus = string(state.StageStates[0].LatestExecution.Status)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, errs
}
