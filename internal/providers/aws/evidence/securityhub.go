package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/securityhub"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// SecurityHub reports, per region, whether a hub exists and how many product
// integrations feed it. DescribeHub failing (including the not-subscribed
// case) marks the region disabled and is recorded as an error.
func (c *DefaultCollector) SecurityHub(ctx context.Context, sess *common.Session, regions []string) *models.SecurityHubEvidence {
	hubs, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.SecurityHubRegion, []string) {
		hub := models.SecurityHubRegion{Region: region}
		if _, err := cl.SecurityHub.DescribeHub(ctx, &securityhub.DescribeHubInput{}); err != nil {
			return []models.SecurityHubRegion{hub}, []string{formatError("securityhub", region, err)}
		}
		hub.Enabled = true

		var errs []string
		products, err := cl.SecurityHub.ListEnabledProductsForImport(ctx, &securityhub.ListEnabledProductsForImportInput{})
		if err != nil {
			errs = append(errs, formatError("securityhub", region, err))
		} else {
			hub.ProductSubscriptions = len(products.ProductSubscriptions)
		}
		return []models.SecurityHubRegion{hub}, errs
	})

	return &models.SecurityHubEvidence{
		EnabledRegionCount: countIf(hubs, func(h models.SecurityHubRegion) bool { return h.Enabled }),
		Regions:            nonNilSlice(hubs),
		RecordErrors:       models.NewRecordErrors(errs),
	}
}
