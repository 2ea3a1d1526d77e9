package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// CloudTrail lists trails visible from each region, shadow trails included,
// and reads the logging status of each. A multi-region trail is therefore
// reported once per scanned region.
func (c *DefaultCollector) CloudTrail(ctx context.Context, sess *common.Session, regions []string) *models.CloudTrailEvidence {
	trails, errs := collectRegions(ctx, c, sess, regions, collectRegionTrails)

	return &models.CloudTrailEvidence{
		TrailCount:            len(trails),
		MultiRegionTrailCount: countIf(trails, func(t models.CloudTrailTrail) bool { return t.IsMultiRegion }),
		LoggingTrailCount:     countIf(trails, func(t models.CloudTrailTrail) bool { return aws.ToBool(t.IsLogging) }),
		Trails:                nonNilSlice(trails),
		RecordErrors:          models.NewRecordErrors(errs),
	}
}

func collectRegionTrails(ctx context.Context, cl *clients, region string) ([]models.CloudTrailTrail, []string) {
	out, err := cl.CloudTrail.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{
		IncludeShadowTrails: aws.Bool(true),
	})
	if err != nil {
		return nil, []string{formatError("cloudtrail", region, err)}
	}

	var errs []string
	trails := make([]models.CloudTrailTrail, 0, len(out.TrailList))
	for _, t := range out.TrailList {
		trail := models.CloudTrailTrail{
			Name:          aws.ToString(t.Name),
			HomeRegion:    aws.ToString(t.HomeRegion),
			Region:        region,
			IsMultiRegion: aws.ToBool(t.IsMultiRegionTrail),
			S3BucketName:  aws.ToString(t.S3BucketName),
			LogGroupARN:   aws.ToString(t.CloudWatchLogsLogGroupArn),
		}

		// The ARN resolves shadow trails whose home region differs.
		name := t.TrailARN
		if name == nil {
			name = t.Name
		}
		status, err := cl.CloudTrail.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{Name: name})
		if err != nil {
			errs = append(errs, formatError("cloudtrail", region, err))
		} else {
			trail.IsLogging = boolPtr(aws.ToBool(status.IsLogging))
		}
		trails = append(trails, trail)
	}
	return trails, errs
}
