package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	guarddutytypes "github.com/aws/aws-sdk-go-v2/service/guardduty/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// GuardDuty lists every detector and reads its status. A detector whose
// GetDetector call failed is still listed, with an empty status.
func (c *DefaultCollector) GuardDuty(ctx context.Context, sess *common.Session, regions []string) *models.GuardDutyEvidence {
	detectors, errs := collectRegions(ctx, c, sess, regions, collectRegionDetectors)

	return &models.GuardDutyEvidence{
		DetectorCount: len(detectors),
		EnabledDetectorCount: countIf(detectors, func(d models.GuardDutyDetector) bool {
			return d.Status == string(guarddutytypes.DetectorStatusEnabled)
		}),
		Detectors:    nonNilSlice(detectors),
		RecordErrors: models.NewRecordErrors(errs),
	}
}

func collectRegionDetectors(ctx context.Context, cl *clients, region string) ([]models.GuardDutyDetector, []string) {
	var ids []string
	pager := guardduty.NewListDetectorsPaginator(cl.GuardDuty, &guardduty.ListDetectorsInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, []string{formatError("guardduty", region, err)}
		}
		ids = append(ids, page.DetectorIds...)
	}

	var errs []string
	detectors := make([]models.GuardDutyDetector, 0, len(ids))
	for _, id := range ids {
		det := models.GuardDutyDetector{DetectorID: id, Region: region}
		out, err := cl.GuardDuty.GetDetector(ctx, &guardduty.GetDetectorInput{DetectorId: aws.String(id)})
		if err != nil {
			errs = append(errs, formatError("guardduty", region, err))
		} else {
			det.Status = string(out.Status)
			det.FindingPublishingFrequency = string(out.FindingPublishingFrequency)
		}
		detectors = append(detectors, det)
	}
	return detectors, errs
}
