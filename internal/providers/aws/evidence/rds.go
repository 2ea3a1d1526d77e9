package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// RDS pages through every database instance and records whether its storage
// is encrypted at rest.
func (c *DefaultCollector) RDS(ctx context.Context, sess *common.Session, regions []string) *models.RDSEvidence {
	instances, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.RDSInstance, []string) {
		var out []models.RDSInstance
		pager := rdssvc.NewDescribeDBInstancesPaginator(cl.RDS, &rdssvc.DescribeDBInstancesInput{})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, []string{formatError("rds", region, err)}
			}
			for _, db := range page.DBInstances {
				out = append(out, models.RDSInstance{
					Identifier:       aws.ToString(db.DBInstanceIdentifier),
					Region:           region,
					Engine:           aws.ToString(db.Engine),
					StorageEncrypted: aws.ToBool(db.StorageEncrypted),
				})
			}
		}
		return out, nil
	})

	return &models.RDSEvidence{
		InstanceCount:            len(instances),
		UnencryptedInstanceCount: countIf(instances, func(i models.RDSInstance) bool { return !i.StorageEncrypted }),
		InstancesSample:          sample(instances, models.SampleLimit),
		RecordErrors:             models.NewRecordErrors(errs),
	}
}
