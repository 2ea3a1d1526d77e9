package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

func (c *DefaultCollector) SSM(ctx context.Context, sess *common.Session, regions []string) *models.SSMEvidence {
	instances, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.SSMInstance, []string) {
		var out []models.SSMInstance
		pager := ssm.NewDescribeInstanceInformationPaginator(cl.SSM, &ssm.DescribeInstanceInformationInput{})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, []string{formatError("ssm", region, err)}
			}
			for _, info := range page.InstanceInformationList {
				out = append(out, models.SSMInstance{
					InstanceID: aws.ToString(info.InstanceId),
					Region:     region,
					PingStatus: string(info.PingStatus),
					Platform:   aws.ToString(info.PlatformName),
				})
			}
		}
		return out, nil
	})

	return &models.SSMEvidence{
		ManagedInstanceCount: len(instances),
		OnlineInstanceCount: countIf(instances, func(i models.SSMInstance) bool {
			return i.PingStatus == string(ssmtypes.PingStatusOnline)
		}),
		InstancesSample: sample(instances, models.SampleLimit),
		RecordErrors:    models.NewRecordErrors(errs),
	}
}
