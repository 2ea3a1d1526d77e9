package models

// EvidenceSource identifies one unit of raw evidence obtainable from a single
// collector. It is the cache key of an evidence context, so a typo in a source
// name is a compile error rather than a silent cache miss.
type EvidenceSource string

const (
	SourceOrganizations  EvidenceSource = "organizations"
	SourceCloudTrail     EvidenceSource = "cloudtrail"
	SourceCloudWatch     EvidenceSource = "cloudwatch"
	SourceVPC            EvidenceSource = "vpc"
	SourceSecurityHub    EvidenceSource = "securityhub"
	SourceGuardDuty      EvidenceSource = "guardduty"
	SourceInspector      EvidenceSource = "inspector"
	SourceConfigRules    EvidenceSource = "config_rules"
	SourceConfig         EvidenceSource = "config"
	SourceBackup         EvidenceSource = "backup"
	SourceIAM            EvidenceSource = "iam"
	SourceAccessAnalyzer EvidenceSource = "access_analyzer"
	SourceSSM            EvidenceSource = "ssm"
	SourceCodePipeline   EvidenceSource = "codepipeline"
	SourceCodeBuild      EvidenceSource = "codebuild"
	SourceKMS            EvidenceSource = "kms"
	SourceWAF            EvidenceSource = "waf"
	SourceS3             EvidenceSource = "s3"
	SourceRDS            EvidenceSource = "rds"
)

// sourceDisplayNames maps each source to the service name shown in reports.
var sourceDisplayNames = map[EvidenceSource]string{
	SourceOrganizations:  "Organizations",
	SourceCloudTrail:     "CloudTrail",
	SourceCloudWatch:     "CloudWatch",
	SourceVPC:            "VPC",
	SourceSecurityHub:    "Security Hub",
	SourceGuardDuty:      "GuardDuty",
	SourceInspector:      "Inspector",
	SourceConfigRules:    "AWS Config",
	SourceConfig:         "AWS Config",
	SourceBackup:         "AWS Backup",
	SourceIAM:            "IAM",
	SourceAccessAnalyzer: "Access Analyzer",
	SourceSSM:            "SSM",
	SourceCodePipeline:   "CodePipeline",
	SourceCodeBuild:      "CodeBuild",
	SourceKMS:            "KMS",
	SourceWAF:            "WAF",
	SourceS3:             "S3",
	SourceRDS:            "RDS",
}

// DisplayName returns the human-readable service name for s. Unknown sources
// fall back to the raw identifier.
func (s EvidenceSource) DisplayName() string {
	if name, ok := sourceDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// SampleLimit caps the number of per-resource entries a record keeps.
// Counters always cover every resource; only the samples are truncated.
const SampleLimit = 25

// ConfigRulesSampleLimit is the larger sample cap used for Config rules.
const ConfigRulesSampleLimit = 50

// EvidenceRecord is the output of one collector call. Every record reports
// the errors encountered while collecting it; a non-empty list means the
// record may be incomplete and the controls consuming it cannot be trusted.
type EvidenceRecord interface {
	Source() EvidenceSource
	CollectionErrors() []string
}

// RecordErrors is embedded by every evidence record. It serialises as the
// "errors" field, which is always an array (never null).
type RecordErrors struct {
	Errors []string `json:"errors"`
}

// NewRecordErrors returns RecordErrors holding a copy of errs.
func NewRecordErrors(errs []string) RecordErrors {
	out := make([]string, 0, len(errs))
	out = append(out, errs...)
	return RecordErrors{Errors: out}
}

// CollectionErrors implements EvidenceRecord.
func (r RecordErrors) CollectionErrors() []string { return r.Errors }

// ── Organizations ────────────────────────────────────────────────────────────

// OrganizationsEvidence describes AWS Organizations governance state.
type OrganizationsEvidence struct {
	OrganizationPresent bool `json:"organization_present"`
	RootCount           int  `json:"root_count"`
	SCPCount            int  `json:"scp_count"`
	AccountCount        int  `json:"account_count"`
	RecordErrors
}

func (*OrganizationsEvidence) Source() EvidenceSource { return SourceOrganizations }

// ── CloudTrail ───────────────────────────────────────────────────────────────

type CloudTrailTrail struct {
	Name          string `json:"name"`
	HomeRegion    string `json:"home_region"`
	Region        string `json:"region"`
	IsMultiRegion bool   `json:"is_multi_region"`
	// IsLogging is nil when GetTrailStatus failed for the trail.
	IsLogging    *bool  `json:"is_logging"`
	S3BucketName string `json:"s3_bucket_name"`
	LogGroupARN  string `json:"log_group_arn"`
}

type CloudTrailEvidence struct {
	TrailCount            int               `json:"trail_count"`
	MultiRegionTrailCount int               `json:"multi_region_trail_count"`
	LoggingTrailCount     int               `json:"logging_trail_count"`
	Trails                []CloudTrailTrail `json:"trails"`
	RecordErrors
}

func (*CloudTrailEvidence) Source() EvidenceSource { return SourceCloudTrail }

// ── CloudWatch ───────────────────────────────────────────────────────────────

type CloudWatchAlarm struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	State  string `json:"state"`
}

type CloudWatchLogGroup struct {
	Name          string `json:"name"`
	Region        string `json:"region"`
	RetentionDays *int32 `json:"retention_days"`
}

type CloudWatchEvidence struct {
	AlarmCount      int                  `json:"alarm_count"`
	LogGroupCount   int                  `json:"log_group_count"`
	AlarmsSample    []CloudWatchAlarm    `json:"alarms_sample"`
	LogGroupsSample []CloudWatchLogGroup `json:"log_groups_sample"`
	RecordErrors
}

func (*CloudWatchEvidence) Source() EvidenceSource { return SourceCloudWatch }

// ── VPC ──────────────────────────────────────────────────────────────────────

type VPCFlowLog struct {
	FlowLogID  string `json:"flow_log_id"`
	ResourceID string `json:"resource_id"`
	Region     string `json:"region"`
	LogStatus  string `json:"log_status"`
}

type VPCEvidence struct {
	FlowLogCount       int          `json:"flow_log_count"`
	ActiveFlowLogCount int          `json:"active_flow_log_count"`
	FlowLogsSample     []VPCFlowLog `json:"flow_logs_sample"`
	RecordErrors
}

func (*VPCEvidence) Source() EvidenceSource { return SourceVPC }

// ── Security Hub ─────────────────────────────────────────────────────────────

type SecurityHubRegion struct {
	Region               string `json:"region"`
	Enabled              bool   `json:"enabled"`
	ProductSubscriptions int    `json:"product_subscriptions"`
}

type SecurityHubEvidence struct {
	EnabledRegionCount int                 `json:"enabled_region_count"`
	Regions            []SecurityHubRegion `json:"regions"`
	RecordErrors
}

func (*SecurityHubEvidence) Source() EvidenceSource { return SourceSecurityHub }

// ── GuardDuty ────────────────────────────────────────────────────────────────

type GuardDutyDetector struct {
	DetectorID                 string `json:"detector_id"`
	Region                     string `json:"region"`
	Status                     string `json:"status"`
	FindingPublishingFrequency string `json:"finding_publishing_frequency"`
}

type GuardDutyEvidence struct {
	DetectorCount        int                 `json:"detector_count"`
	EnabledDetectorCount int                 `json:"enabled_detector_count"`
	Detectors            []GuardDutyDetector `json:"detectors"`
	RecordErrors
}

func (*GuardDutyEvidence) Source() EvidenceSource { return SourceGuardDuty }

// ── Inspector ────────────────────────────────────────────────────────────────

type InspectorRegion struct {
	Region        string `json:"region"`
	CoverageCount int    `json:"coverage_count"`
}

type InspectorEvidence struct {
	CoverageRegionCount int               `json:"coverage_region_count"`
	Regions             []InspectorRegion `json:"regions"`
	RecordErrors
}

func (*InspectorEvidence) Source() EvidenceSource { return SourceInspector }

// ── AWS Config ───────────────────────────────────────────────────────────────

type ConfigRule struct {
	Name       string `json:"name"`
	Region     string `json:"region"`
	State      string `json:"state"`
	Compliance string `json:"compliance"`
}

// ConfigRulesEvidence lists Config rules and their compliance state.
type ConfigRulesEvidence struct {
	RuleCount         int          `json:"rule_count"`
	NoncompliantCount int          `json:"noncompliant_count"`
	RulesSample       []ConfigRule `json:"rules_sample"`
	RecordErrors
}

func (*ConfigRulesEvidence) Source() EvidenceSource { return SourceConfigRules }

type ConfigRecorder struct {
	Name                 string `json:"name"`
	Region               string `json:"region"`
	Recording            bool   `json:"recording"`
	LastStatus           string `json:"last_status"`
	DeliveryChannelCount int    `json:"delivery_channel_count"`
}

// ConfigRecorderEvidence lists Config configuration recorders.
type ConfigRecorderEvidence struct {
	RecorderCount  int              `json:"recorder_count"`
	RecordingCount int              `json:"recording_count"`
	Recorders      []ConfigRecorder `json:"recorders"`
	RecordErrors
}

func (*ConfigRecorderEvidence) Source() EvidenceSource { return SourceConfig }

// ── AWS Backup ───────────────────────────────────────────────────────────────

type BackupPlan struct {
	PlanID string `json:"plan_id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

type BackupEvidence struct {
	BackupPlanCount int          `json:"backup_plan_count"`
	PlansSample     []BackupPlan `json:"plans_sample"`
	RecordErrors
}

func (*BackupEvidence) Source() EvidenceSource { return SourceBackup }

// ── IAM ──────────────────────────────────────────────────────────────────────

type IAMEvidence struct {
	RootMFAEnabled        bool `json:"root_mfa_enabled"`
	PasswordPolicyPresent bool `json:"password_policy_present"`
	UserCount             int  `json:"user_count"`
	RecordErrors
}

func (*IAMEvidence) Source() EvidenceSource { return SourceIAM }

// ── Access Analyzer ──────────────────────────────────────────────────────────

type AccessAnalyzer struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

type AccessAnalyzerEvidence struct {
	AnalyzerCount       int              `json:"analyzer_count"`
	ActiveAnalyzerCount int              `json:"active_analyzer_count"`
	Analyzers           []AccessAnalyzer `json:"analyzers"`
	RecordErrors
}

func (*AccessAnalyzerEvidence) Source() EvidenceSource { return SourceAccessAnalyzer }

// ── SSM ──────────────────────────────────────────────────────────────────────

type SSMInstance struct {
	InstanceID string `json:"instance_id"`
	Region     string `json:"region"`
	PingStatus string `json:"ping_status"`
	Platform   string `json:"platform"`
}

type SSMEvidence struct {
	ManagedInstanceCount int           `json:"managed_instance_count"`
	OnlineInstanceCount  int           `json:"online_instance_count"`
	InstancesSample      []SSMInstance `json:"instances_sample"`
	RecordErrors
}

func (*SSMEvidence) Source() EvidenceSource { return SourceSSM }

// ── CodePipeline / CodeBuild ─────────────────────────────────────────────────

type Pipeline struct {
	Name                  string `json:"name"`
	Region                string `json:"region"`
	LatestExecutionStatus string `json:"latest_execution_status"`
}

type CodePipelineEvidence struct {
	PipelineCount   int        `json:"pipeline_count"`
	PipelinesSample []Pipeline `json:"pipelines_sample"`
	RecordErrors
}

func (*CodePipelineEvidence) Source() EvidenceSource { return SourceCodePipeline }

type BuildProject struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

type CodeBuildEvidence struct {
	ProjectCount   int            `json:"project_count"`
	ProjectsSample []BuildProject `json:"projects_sample"`
	RecordErrors
}

func (*CodeBuildEvidence) Source() EvidenceSource { return SourceCodeBuild }

// ── KMS ──────────────────────────────────────────────────────────────────────

type KMSKey struct {
	KeyID      string `json:"key_id"`
	Region     string `json:"region"`
	KeyManager string `json:"key_manager"`
	KeyState   string `json:"key_state"`
	// RotationEnabled is nil when the rotation status could not be read.
	RotationEnabled *bool `json:"rotation_enabled"`
}

// KMSEvidence covers at most SampleLimit keys per region. RotationEnabledCount
// counts every sampled key; CustomerManagedRotationCount only those with
// KeyManager CUSTOMER.
type KMSEvidence struct {
	SampledKeyCount              int      `json:"sampled_key_count"`
	CustomerManagedKeyCount      int      `json:"customer_managed_key_count"`
	RotationEnabledCount         int      `json:"rotation_enabled_count"`
	CustomerManagedRotationCount int      `json:"customer_managed_rotation_count"`
	KeysSampled                  []KMSKey `json:"keys_sampled"`
	RecordErrors
}

func (*KMSEvidence) Source() EvidenceSource { return SourceKMS }

// ── WAF ──────────────────────────────────────────────────────────────────────

type WebACL struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Region string `json:"region"`
}

type WAFEvidence struct {
	WebACLCount   int      `json:"web_acl_count"`
	WebACLsSample []WebACL `json:"web_acls_sample"`
	RecordErrors
}

func (*WAFEvidence) Source() EvidenceSource { return SourceWAF }

// ── S3 ───────────────────────────────────────────────────────────────────────

// S3Bucket carries the public-access and default-encryption attributes of a
// bucket. Public is true only when the bucket policy status reports IsPublic.
type S3Bucket struct {
	Name                     string `json:"name"`
	Public                   bool   `json:"public"`
	DefaultEncryptionEnabled bool   `json:"default_encryption_enabled"`
}

type S3Evidence struct {
	BucketCount            int        `json:"bucket_count"`
	PublicBucketCount      int        `json:"public_bucket_count"`
	UnencryptedBucketCount int        `json:"unencrypted_bucket_count"`
	BucketsSample          []S3Bucket `json:"buckets_sample"`
	RecordErrors
}

func (*S3Evidence) Source() EvidenceSource { return SourceS3 }

// ── RDS ──────────────────────────────────────────────────────────────────────

type RDSInstance struct {
	Identifier       string `json:"identifier"`
	Region           string `json:"region"`
	Engine           string `json:"engine"`
	StorageEncrypted bool   `json:"storage_encrypted"`
}

type RDSEvidence struct {
	InstanceCount            int           `json:"instance_count"`
	UnencryptedInstanceCount int           `json:"unencrypted_instance_count"`
	InstancesSample          []RDSInstance `json:"instances_sample"`
	RecordErrors
}

func (*RDSEvidence) Source() EvidenceSource { return SourceRDS }
