package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// VPC lists flow logs. A flow log is active when its FlowLogStatus is ACTIVE.
func (c *DefaultCollector) VPC(ctx context.Context, sess *common.Session, regions []string) *models.VPCEvidence {
	logs, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.VPCFlowLog, []string) {
		var out []models.VPCFlowLog
		pager := ec2.NewDescribeFlowLogsPaginator(cl.EC2, &ec2.DescribeFlowLogsInput{})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, []string{formatError("ec2", region, err)}
			}
			for _, fl := range page.FlowLogs {
				out = append(out, models.VPCFlowLog{
					FlowLogID:  aws.ToString(fl.FlowLogId),
					ResourceID: aws.ToString(fl.ResourceId),
					Region:     region,
					LogStatus:  aws.ToString(fl.FlowLogStatus),
				})
			}
		}
		return out, nil
	})

	return &models.VPCEvidence{
		FlowLogCount:       len(logs),
		ActiveFlowLogCount: countIf(logs, func(l models.VPCFlowLog) bool { return l.LogStatus == "ACTIVE" }),
		FlowLogsSample:     sample(logs, models.SampleLimit),
		RecordErrors:       models.NewRecordErrors(errs),
	}
}
