package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	"github.com/aws/aws-sdk-go-v2/service/backup"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
)

// Each interface covers only the operations its collector calls. Where the
// SDK ships a paginator, the matching *APIClient interface is embedded so the
// paginator can drive a fake in tests.

type organizationsAPIClient interface {
	organizations.ListRootsAPIClient
	organizations.ListPoliciesAPIClient
	organizations.ListAccountsAPIClient
	DescribeOrganization(ctx context.Context, params *organizations.DescribeOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error)
}

type cloudTrailAPIClient interface {
	DescribeTrails(ctx context.Context, params *cloudtrail.DescribeTrailsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.DescribeTrailsOutput, error)
	GetTrailStatus(ctx context.Context, params *cloudtrail.GetTrailStatusInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.GetTrailStatusOutput, error)
}

type cloudWatchAPIClient interface {
	cloudwatch.DescribeAlarmsAPIClient
}

type cloudWatchLogsAPIClient interface {
	cloudwatchlogs.DescribeLogGroupsAPIClient
}

type ec2FlowLogsAPIClient interface {
	ec2.DescribeFlowLogsAPIClient
}

type securityHubAPIClient interface {
	DescribeHub(ctx context.Context, params *securityhub.DescribeHubInput, optFns ...func(*securityhub.Options)) (*securityhub.DescribeHubOutput, error)
	ListEnabledProductsForImport(ctx context.Context, params *securityhub.ListEnabledProductsForImportInput, optFns ...func(*securityhub.Options)) (*securityhub.ListEnabledProductsForImportOutput, error)
}

type guardDutyAPIClient interface {
	guardduty.ListDetectorsAPIClient
	GetDetector(ctx context.Context, params *guardduty.GetDetectorInput, optFns ...func(*guardduty.Options)) (*guardduty.GetDetectorOutput, error)
}

type inspectorAPIClient interface {
	ListCoverage(ctx context.Context, params *inspector2.ListCoverageInput, optFns ...func(*inspector2.Options)) (*inspector2.ListCoverageOutput, error)
}

type configAPIClient interface {
	DescribeConfigRules(ctx context.Context, params *configsvc.DescribeConfigRulesInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeConfigRulesOutput, error)
	DescribeComplianceByConfigRule(ctx context.Context, params *configsvc.DescribeComplianceByConfigRuleInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeComplianceByConfigRuleOutput, error)
	DescribeConfigurationRecorders(ctx context.Context, params *configsvc.DescribeConfigurationRecordersInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeConfigurationRecordersOutput, error)
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configsvc.DescribeConfigurationRecorderStatusInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeConfigurationRecorderStatusOutput, error)
	DescribeDeliveryChannels(ctx context.Context, params *configsvc.DescribeDeliveryChannelsInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeDeliveryChannelsOutput, error)
}

type backupAPIClient interface {
	backup.ListBackupPlansAPIClient
}

type iamAPIClient interface {
	iam.ListUsersAPIClient
	GetAccountSummary(ctx context.Context, params *iam.GetAccountSummaryInput, optFns ...func(*iam.Options)) (*iam.GetAccountSummaryOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iam.GetAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.GetAccountPasswordPolicyOutput, error)
}

type accessAnalyzerAPIClient interface {
	accessanalyzer.ListAnalyzersAPIClient
}

type ssmAPIClient interface {
	ssm.DescribeInstanceInformationAPIClient
}

type codePipelineAPIClient interface {
	codepipeline.ListPipelinesAPIClient
	GetPipelineState(ctx context.Context, params *codepipeline.GetPipelineStateInput, optFns ...func(*codepipeline.Options)) (*codepipeline.GetPipelineStateOutput, error)
}

type codeBuildAPIClient interface {
	ListProjects(ctx context.Context, params *codebuild.ListProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.ListProjectsOutput, error)
}

type kmsAPIClient interface {
	ListKeys(ctx context.Context, params *kms.ListKeysInput, optFns ...func(*kms.Options)) (*kms.ListKeysOutput, error)
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
	GetKeyRotationStatus(ctx context.Context, params *kms.GetKeyRotationStatusInput, optFns ...func(*kms.Options)) (*kms.GetKeyRotationStatusOutput, error)
}

type wafAPIClient interface {
	ListWebACLs(ctx context.Context, params *wafv2.ListWebACLsInput, optFns ...func(*wafv2.Options)) (*wafv2.ListWebACLsOutput, error)
}

// s3APIClient covers bucket listing, policy status inspection, and
// encryption status.
type s3APIClient interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketPolicyStatus(ctx context.Context, params *s3.GetBucketPolicyStatusInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyStatusOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error)
}

type rdsAPIClient interface {
	rds.DescribeDBInstancesAPIClient
}

// clients bundles every AWS service client used by the evidence collectors.
type clients struct {
	Organizations  organizationsAPIClient
	CloudTrail     cloudTrailAPIClient
	CloudWatch     cloudWatchAPIClient
	CloudWatchLogs cloudWatchLogsAPIClient
	EC2            ec2FlowLogsAPIClient
	SecurityHub    securityHubAPIClient
	GuardDuty      guardDutyAPIClient
	Inspector      inspectorAPIClient
	Config         configAPIClient
	Backup         backupAPIClient
	IAM            iamAPIClient
	AccessAnalyzer accessAnalyzerAPIClient
	SSM            ssmAPIClient
	CodePipeline   codePipelineAPIClient
	CodeBuild      codeBuildAPIClient
	KMS            kmsAPIClient
	WAF            wafAPIClient
	S3             s3APIClient
	RDS            rdsAPIClient
}

// clientFactory creates clients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type clientFactory func(cfg aws.Config) *clients

// newDefaultClients creates production AWS SDK clients from the given config.
// SDK clients are cheap to construct; no connection is opened until the
// first call.
func newDefaultClients(cfg aws.Config) *clients {
	return &clients{
		Organizations:  organizations.NewFromConfig(cfg),
		CloudTrail:     cloudtrail.NewFromConfig(cfg),
		CloudWatch:     cloudwatch.NewFromConfig(cfg),
		CloudWatchLogs: cloudwatchlogs.NewFromConfig(cfg),
		EC2:            ec2.NewFromConfig(cfg),
		SecurityHub:    securityhub.NewFromConfig(cfg),
		GuardDuty:      guardduty.NewFromConfig(cfg),
		Inspector:      inspector2.NewFromConfig(cfg),
		Config:         configsvc.NewFromConfig(cfg),
		Backup:         backup.NewFromConfig(cfg),
		IAM:            iam.NewFromConfig(cfg),
		AccessAnalyzer: accessanalyzer.NewFromConfig(cfg),
		SSM:            ssm.NewFromConfig(cfg),
		CodePipeline:   codepipeline.NewFromConfig(cfg),
		CodeBuild:      codebuild.NewFromConfig(cfg),
		KMS:            kms.NewFromConfig(cfg),
		WAF:            wafv2.NewFromConfig(cfg),
		S3:             s3.NewFromConfig(cfg),
		RDS:            rds.NewFromConfig(cfg),
	}
}
