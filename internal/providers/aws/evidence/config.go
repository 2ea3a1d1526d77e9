package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// complianceBatchSize is the maximum number of rule names accepted by
// DescribeComplianceByConfigRule.
const complianceBatchSize = 25

// ConfigRules lists AWS Config rules with their compliance type. Compliance
// is looked up in batches; a failed batch leaves those rules with an empty
// compliance value.
func (c *DefaultCollector) ConfigRules(ctx context.Context, sess *common.Session, regions []string) *models.ConfigRulesEvidence {
	rules, errs := collectRegions(ctx, c, sess, regions, collectRegionConfigRules)

	return &models.ConfigRulesEvidence{
		RuleCount: len(rules),
		NoncompliantCount: countIf(rules, func(r models.ConfigRule) bool {
			return r.Compliance == string(configtypes.ComplianceTypeNonCompliant)
		}),
		RulesSample:  sample(rules, models.ConfigRulesSampleLimit),
		RecordErrors: models.NewRecordErrors(errs),
	}
}

func collectRegionConfigRules(ctx context.Context, cl *clients, region string) ([]models.ConfigRule, []string) {
	var errs []string
	var found []configtypes.ConfigRule

	input := &configsvc.DescribeConfigRulesInput{}
	for {
		out, err := cl.Config.DescribeConfigRules(ctx, input)
		if err != nil {
			errs = append(errs, formatError("config", region, err))
			break
		}
		found = append(found, out.ConfigRules...)
		if aws.ToString(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	if len(found) == 0 {
		return nil, errs
	}

	names := make([]string, 0, len(found))
	for _, r := range found {
		if r.ConfigRuleName != nil {
			names = append(names, *r.ConfigRuleName)
		}
	}

	compliance := make(map[string]string, len(names))
	for start := 0; start < len(names); start += complianceBatchSize {
		batch := names[start:min(start+complianceBatchSize, len(names))]
		input := &configsvc.DescribeComplianceByConfigRuleInput{ConfigRuleNames: batch}
		for {
			out, err := cl.Config.DescribeComplianceByConfigRule(ctx, input)
			if err != nil {
				errs = append(errs, formatError("config", region, err))
				break
			}
			for _, item := range out.ComplianceByConfigRules {
				if item.Compliance != nil {
					compliance[aws.ToString(item.ConfigRuleName)] = string(item.Compliance.ComplianceType)
				}
			}
			if aws.ToString(out.NextToken) == "" {
				break
			}
			input.NextToken = out.NextToken
		}
	}

	rules := make([]models.ConfigRule, 0, len(found))
	for _, r := range found {
		name := aws.ToString(r.ConfigRuleName)
		rules = append(rules, models.ConfigRule{
			Name:       name,
			Region:     region,
			State:      string(r.ConfigRuleState),
			Compliance: compliance[name],
		})
	}
	return rules, errs
}

// ConfigRecorders lists configuration recorders joined with their recording
// status and the region's delivery channel count. The three calls fail
// independently.
func (c *DefaultCollector) ConfigRecorders(ctx context.Context, sess *common.Session, regions []string) *models.ConfigRecorderEvidence {
	recorders, errs := collectRegions(ctx, c, sess, regions, collectRegionRecorders)

	return &models.ConfigRecorderEvidence{
		RecorderCount:  len(recorders),
		RecordingCount: countIf(recorders, func(r models.ConfigRecorder) bool { return r.Recording }),
		Recorders:      nonNilSlice(recorders),
		RecordErrors:   models.NewRecordErrors(errs),
	}
}

func collectRegionRecorders(ctx context.Context, cl *clients, region string) ([]models.ConfigRecorder, []string) {
	var errs []string

	recOut, err := cl.Config.DescribeConfigurationRecorders(ctx, &configsvc.DescribeConfigurationRecordersInput{})
	if err != nil {
		errs = append(errs, formatError("config", region, err))
	}
	statusOut, err := cl.Config.DescribeConfigurationRecorderStatus(ctx, &configsvc.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		errs = append(errs, formatError("config", region, err))
	}
	channelsOut, err := cl.Config.DescribeDeliveryChannels(ctx, &configsvc.DescribeDeliveryChannelsInput{})
	if err != nil {
		errs = append(errs, formatError("config", region, err))
	}

	if recOut == nil {
		return nil, errs
	}

	statuses := make(map[string]configtypes.ConfigurationRecorderStatus)
	if statusOut != nil {
		for _, s := range statusOut.ConfigurationRecordersStatus {
			statuses[aws.ToString(s.Name)] = s
		}
	}
	channels := 0
	if channelsOut != nil {
		channels = len(channelsOut.DeliveryChannels)
	}

	recorders := make([]models.ConfigRecorder, 0, len(recOut.ConfigurationRecorders))
	for _, r := range recOut.ConfigurationRecorders {
		name := aws.ToString(r.Name)
		status := statuses[name]
		recorders = append(recorders, models.ConfigRecorder{
			Name:                 name,
			Region:               region,
			Recording:            status.Recording,
			LastStatus:           string(status.LastStatus),
			DeliveryChannelCount: channels,
		})
	}
	return recorders, errs
}
