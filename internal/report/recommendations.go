package report

import (
	"maps"
	"strings"
)

// GenericRecommendation is returned for gaps and errors with no entry.
const GenericRecommendation = "Review the finding with the control owner and document the remediation or compensating control."

// defaultGapRecommendations maps gap texts to remediation advice.
var defaultGapRecommendations = map[string]string{
	"AWS Organizations is not enabled.":                             "Create an AWS Organization to centralise account governance.",
	"No Service Control Policies detected.":                         "Attach Service Control Policies that enforce baseline guardrails.",
	"No CloudTrail trails are actively logging.":                    "Enable a multi-region CloudTrail trail and confirm it is logging.",
	"No CloudWatch log groups detected.":                            "Ship application and audit logs to CloudWatch Logs.",
	"No CloudWatch alarms detected.":                                "Create CloudWatch alarms for security-relevant metrics.",
	"No active VPC flow logs detected.":                             "Enable VPC flow logs for every production VPC.",
	"Security Hub is not enabled in the provided regions.":          "Enable Security Hub in every region in scope.",
	"GuardDuty is not enabled in the provided regions.":             "Enable GuardDuty detectors in every region in scope.",
	"Inspector coverage not detected in the provided regions.":      "Activate Amazon Inspector scanning for EC2, ECR and Lambda.",
	"No AWS Config rules detected.":                                 "Deploy AWS Config rules or a conformance pack.",
	"Non-compliant AWS Config rules detected.":                      "Remediate non-compliant resources reported by AWS Config.",
	"No AWS Backup plans detected.":                                 "Define AWS Backup plans covering critical data stores.",
	"Root account MFA is not enabled.":                              "Enable MFA on the root user and store the device securely.",
	"IAM password policy is missing.":                               "Configure an IAM account password policy.",
	"No active IAM Access Analyzer found.":                          "Create an account-level IAM Access Analyzer.",
	"AWS Config is not recording in any provided region.":           "Start the AWS Config configuration recorder in every region in scope.",
	"No SSM managed instances detected.":                            "Register instances with Systems Manager for patching and inventory.",
	"No CodePipeline or CodeBuild projects detected.":               "Route production changes through a CI/CD pipeline with review gates.",
	"No customer-managed KMS keys have automatic rotation enabled.": "Enable automatic rotation on customer-managed KMS keys.",
	"No regional WAF web ACLs detected.":                            "Protect internet-facing endpoints with AWS WAF web ACLs.",
	"S3 buckets without default encryption detected.":               "Enable default server-side encryption on every S3 bucket.",
	"RDS instances without storage encryption detected.":            "Migrate unencrypted RDS instances to encrypted storage.",
	"No evidence collector implemented for this control.":           "Collect evidence for this control manually.",
}

// errorRecommendations match on a substring of a collection error, checked
// in order.
var errorRecommendations = []struct {
	match, advice string
}{
	{"AccessDenied", "Grant the scanning role read-only access (e.g. SecurityAudit) for this service."},
	{"UnauthorizedOperation", "Grant the scanning role read-only access (e.g. SecurityAudit) for this service."},
	{"AWSOrganizationsNotInUse", "The account is not part of an AWS Organization."},
	{"InvalidAccessException", "Enable the service in this region or exclude the region from the scan."},
	{"SubscriptionRequired", "Enable the service in this region or exclude the region from the scan."},
	{"ExpiredToken", "Refresh the AWS credentials and rerun the scan."},
	{"Throttl", "Rerun the scan with lower concurrency."},
	{"context canceled", "The scan was interrupted; rerun it to completion."},
}

// Recommender resolves remediation advice for gaps and collection errors.
// Overrides replace or extend the built-in gap table; an override keyed by
// an exact error string also applies to that error.
type Recommender struct {
	gaps      map[string]string
	overrides map[string]string
}

// NewRecommender returns a Recommender with overrides layered on top of
// the built-in table.
func NewRecommender(overrides map[string]string) *Recommender {
	gaps := maps.Clone(defaultGapRecommendations)
	maps.Copy(gaps, overrides)
	return &Recommender{gaps: gaps, overrides: maps.Clone(overrides)}
}

// ForGap returns the advice for a gap text.
func (r *Recommender) ForGap(gap string) string {
	if advice, ok := r.gaps[gap]; ok {
		return advice
	}
	return GenericRecommendation
}

// ForError returns the advice for a collection error string.
func (r *Recommender) ForError(errText string) string {
	if advice, ok := r.overrides[errText]; ok {
		return advice
	}
	for _, e := range errorRecommendations {
		if strings.Contains(errText, e.match) {
			return e.advice
		}
	}
	return GenericRecommendation
}
