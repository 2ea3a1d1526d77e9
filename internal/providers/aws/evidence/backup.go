package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/backup"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

func (c *DefaultCollector) Backup(ctx context.Context, sess *common.Session, regions []string) *models.BackupEvidence {
	plans, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.BackupPlan, []string) {
		var out []models.BackupPlan
		pager := backup.NewListBackupPlansPaginator(cl.Backup, &backup.ListBackupPlansInput{})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, []string{formatError("backup", region, err)}
			}
			for _, p := range page.BackupPlansList {
				out = append(out, models.BackupPlan{
					PlanID: aws.ToString(p.BackupPlanId),
					Name:   aws.ToString(p.BackupPlanName),
					Region: region,
				})
			}
		}
		return out, nil
	})

	return &models.BackupEvidence{
		BackupPlanCount: len(plans),
		PlansSample:     sample(plans, models.SampleLimit),
		RecordErrors:    models.NewRecordErrors(errs),
	}
}
