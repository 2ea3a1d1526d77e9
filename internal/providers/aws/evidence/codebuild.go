package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

func (c *DefaultCollector) CodeBuild(ctx context.Context, sess *common.Session, regions []string) *models.CodeBuildEvidence {
	projects, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.BuildProject, []string) {
		var out []models.BuildProject
		input := &codebuild.ListProjectsInput{}
		for {
			page, err := cl.CodeBuild.ListProjects(ctx, input)
			if err != nil {
				return nil, []string{formatError("codebuild", region, err)}
			}
			for _, name := range page.Projects {
				out = append(out, models.BuildProject{Name: name, Region: region})
			}
			if aws.ToString(page.NextToken) == "" {
				return out, nil
			}
			input.NextToken = page.NextToken
		}
	})

	return &models.CodeBuildEvidence{
		ProjectCount:   len(projects),
		ProjectsSample: sample(projects, models.SampleLimit),
		RecordErrors:   models.NewRecordErrors(errs),
	}
}
