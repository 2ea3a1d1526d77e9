package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// inspectorCoveragePageSize is the page size used to detect coverage. Presence
// is all that matters, so only the first page is read.
const inspectorCoveragePageSize = 10

// Inspector checks Inspector coverage per region. A region counts as covered
// when at least one resource is reported.
func (c *DefaultCollector) Inspector(ctx context.Context, sess *common.Session, regions []string) *models.InspectorEvidence {
	covered, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.InspectorRegion, []string) {
		r := models.InspectorRegion{Region: region}
		out, err := cl.Inspector.ListCoverage(ctx, &inspector2.ListCoverageInput{
			MaxResults: aws.Int32(inspectorCoveragePageSize),
		})
		if err != nil {
			return []models.InspectorRegion{r}, []string{formatError("inspector2", region, err)}
		}
		r.CoverageCount = len(out.CoveredResources)
		return []models.InspectorRegion{r}, nil
	})

	return &models.InspectorEvidence{
		CoverageRegionCount: countIf(covered, func(r models.InspectorRegion) bool { return r.CoverageCount > 0 }),
		Regions:             nonNilSlice(covered),
		RecordErrors:        models.NewRecordErrors(errs),
	}
}
