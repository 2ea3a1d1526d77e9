package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

type cloudWatchPart struct {
	alarm    *models.CloudWatchAlarm
	logGroup *models.CloudWatchLogGroup
}

// CloudWatch counts metric alarms and log groups. A failure on one API does
// not discard what the other returned for the same region.
func (c *DefaultCollector) CloudWatch(ctx context.Context, sess *common.Session, regions []string) *models.CloudWatchEvidence {
	parts, errs := collectRegions(ctx, c, sess, regions, collectRegionCloudWatch)

	alarms := []models.CloudWatchAlarm{}
	groups := []models.CloudWatchLogGroup{}
	for _, p := range parts {
		if p.alarm != nil {
			alarms = append(alarms, *p.alarm)
		}
		if p.logGroup != nil {
			groups = append(groups, *p.logGroup)
		}
	}

	return &models.CloudWatchEvidence{
		AlarmCount:      len(alarms),
		LogGroupCount:   len(groups),
		AlarmsSample:    sample(alarms, models.SampleLimit),
		LogGroupsSample: sample(groups, models.SampleLimit),
		RecordErrors:    models.NewRecordErrors(errs),
	}
}

func collectRegionCloudWatch(ctx context.Context, cl *clients, region string) ([]cloudWatchPart, []string) {
	var parts []cloudWatchPart
	var errs []string

	alarms := cloudwatch.NewDescribeAlarmsPaginator(cl.CloudWatch, &cloudwatch.DescribeAlarmsInput{})
	for alarms.HasMorePages() {
		page, err := alarms.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("cloudwatch", region, err))
			break
		}
		for _, a := range page.MetricAlarms {
			parts = append(parts, cloudWatchPart{alarm: &models.CloudWatchAlarm{
				Name:   aws.ToString(a.AlarmName),
				Region: region,
				State:  string(a.StateValue),
			}})
		}
	}

	groups := cloudwatchlogs.NewDescribeLogGroupsPaginator(cl.CloudWatchLogs, &cloudwatchlogs.DescribeLogGroupsInput{})
	for groups.HasMorePages() {
		page, err := groups.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("cloudwatch-logs", region, err))
			break
		}
		for _, g := range page.LogGroups {
			parts = append(parts, cloudWatchPart{logGroup: &models.CloudWatchLogGroup{
				Name:          aws.ToString(g.LogGroupName),
				Region:        region,
				RetentionDays: g.RetentionInDays,
			}})
		}
	}
	return parts, errs
}
