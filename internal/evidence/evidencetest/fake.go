// Package evidencetest provides an in-memory evidence.Collector for tests.
package evidencetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

var _ evidence.Collector = (*FakeCollector)(nil)

// FakeCollector returns canned records and counts every call per account and
// source. Sources with no canned record yield an empty, error-free record.
// It is safe for concurrent use.
type FakeCollector struct {
	// Records applies to every account unless overridden in ByAccount.
	Records map[models.EvidenceSource]models.EvidenceRecord
	// ByAccount overrides Records for a specific session account id.
	ByAccount map[string]map[models.EvidenceSource]models.EvidenceRecord
	// PanicFor makes every call for the listed account ids panic.
	PanicFor map[string]bool

	mu    sync.Mutex
	calls map[string]map[models.EvidenceSource]int
}

// New returns a FakeCollector serving recs to every account.
func New(recs ...models.EvidenceRecord) *FakeCollector {
	f := &FakeCollector{Records: make(map[models.EvidenceSource]models.EvidenceRecord)}
	for _, r := range recs {
		f.Records[r.Source()] = r
	}
	return f
}

// SetAccount registers recs for one account id.
func (f *FakeCollector) SetAccount(accountID string, recs ...models.EvidenceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ByAccount == nil {
		f.ByAccount = make(map[string]map[models.EvidenceSource]models.EvidenceRecord)
	}
	m := make(map[models.EvidenceSource]models.EvidenceRecord, len(recs))
	for _, r := range recs {
		m[r.Source()] = r
	}
	f.ByAccount[accountID] = m
}

// Calls returns the number of times src was collected across all accounts.
func (f *FakeCollector) Calls(src models.EvidenceSource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, perSource := range f.calls {
		n += perSource[src]
	}
	return n
}

// CallsFor returns the number of times src was collected for accountID.
func (f *FakeCollector) CallsFor(accountID string, src models.EvidenceSource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[accountID][src]
}

func (f *FakeCollector) record(sess *common.Session, src models.EvidenceSource) models.EvidenceRecord {
	account := ""
	if sess != nil {
		account = sess.AccountID
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]map[models.EvidenceSource]int)
	}
	if f.calls[account] == nil {
		f.calls[account] = make(map[models.EvidenceSource]int)
	}
	f.calls[account][src]++
	var rec models.EvidenceRecord
	if perAccount, ok := f.ByAccount[account]; ok {
		rec = perAccount[src]
	} else {
		rec = f.Records[src]
	}
	shouldPanic := f.PanicFor[account]
	f.mu.Unlock()

	if shouldPanic {
		panic(fmt.Sprintf("fake collector: %s for account %s", src, account))
	}
	return rec
}

func pick[T models.EvidenceRecord](f *FakeCollector, sess *common.Session, src models.EvidenceSource, empty T) T {
	if typed, ok := f.record(sess, src).(T); ok {
		return typed
	}
	return empty
}

func none() models.RecordErrors { return models.NewRecordErrors(nil) }

func (f *FakeCollector) Organizations(_ context.Context, s *common.Session) *models.OrganizationsEvidence {
	return pick(f, s, models.SourceOrganizations, &models.OrganizationsEvidence{RecordErrors: none()})
}

func (f *FakeCollector) CloudTrail(_ context.Context, s *common.Session, _ []string) *models.CloudTrailEvidence {
	return pick(f, s, models.SourceCloudTrail, &models.CloudTrailEvidence{RecordErrors: none()})
}

func (f *FakeCollector) CloudWatch(_ context.Context, s *common.Session, _ []string) *models.CloudWatchEvidence {
	return pick(f, s, models.SourceCloudWatch, &models.CloudWatchEvidence{RecordErrors: none()})
}

func (f *FakeCollector) VPC(_ context.Context, s *common.Session, _ []string) *models.VPCEvidence {
	return pick(f, s, models.SourceVPC, &models.VPCEvidence{RecordErrors: none()})
}

func (f *FakeCollector) SecurityHub(_ context.Context, s *common.Session, _ []string) *models.SecurityHubEvidence {
	return pick(f, s, models.SourceSecurityHub, &models.SecurityHubEvidence{RecordErrors: none()})
}

func (f *FakeCollector) GuardDuty(_ context.Context, s *common.Session, _ []string) *models.GuardDutyEvidence {
	return pick(f, s, models.SourceGuardDuty, &models.GuardDutyEvidence{RecordErrors: none()})
}

func (f *FakeCollector) Inspector(_ context.Context, s *common.Session, _ []string) *models.InspectorEvidence {
	return pick(f, s, models.SourceInspector, &models.InspectorEvidence{RecordErrors: none()})
}

func (f *FakeCollector) ConfigRules(_ context.Context, s *common.Session, _ []string) *models.ConfigRulesEvidence {
	return pick(f, s, models.SourceConfigRules, &models.ConfigRulesEvidence{RecordErrors: none()})
}

func (f *FakeCollector) ConfigRecorders(_ context.Context, s *common.Session, _ []string) *models.ConfigRecorderEvidence {
	return pick(f, s, models.SourceConfig, &models.ConfigRecorderEvidence{RecordErrors: none()})
}

func (f *FakeCollector) Backup(_ context.Context, s *common.Session, _ []string) *models.BackupEvidence {
	return pick(f, s, models.SourceBackup, &models.BackupEvidence{RecordErrors: none()})
}

func (f *FakeCollector) IAM(_ context.Context, s *common.Session) *models.IAMEvidence {
	return pick(f, s, models.SourceIAM, &models.IAMEvidence{RecordErrors: none()})
}

func (f *FakeCollector) AccessAnalyzer(_ context.Context, s *common.Session, _ []string) *models.AccessAnalyzerEvidence {
	return pick(f, s, models.SourceAccessAnalyzer, &models.AccessAnalyzerEvidence{RecordErrors: none()})
}

func (f *FakeCollector) SSM(_ context.Context, s *common.Session, _ []string) *models.SSMEvidence {
	return pick(f, s, models.SourceSSM, &models.SSMEvidence{RecordErrors: none()})
}

func (f *FakeCollector) CodePipeline(_ context.Context, s *common.Session, _ []string) *models.CodePipelineEvidence {
	return pick(f, s, models.SourceCodePipeline, &models.CodePipelineEvidence{RecordErrors: none()})
}

func (f *FakeCollector) CodeBuild(_ context.Context, s *common.Session, _ []string) *models.CodeBuildEvidence {
	return pick(f, s, models.SourceCodeBuild, &models.CodeBuildEvidence{RecordErrors: none()})
}

func (f *FakeCollector) KMS(_ context.Context, s *common.Session, _ []string) *models.KMSEvidence {
	return pick(f, s, models.SourceKMS, &models.KMSEvidence{RecordErrors: none()})
}

func (f *FakeCollector) WAF(_ context.Context, s *common.Session, _ []string) *models.WAFEvidence {
	return pick(f, s, models.SourceWAF, &models.WAFEvidence{RecordErrors: none()})
}

func (f *FakeCollector) S3(_ context.Context, s *common.Session) *models.S3Evidence {
	return pick(f, s, models.SourceS3, &models.S3Evidence{RecordErrors: none()})
}

func (f *FakeCollector) RDS(_ context.Context, s *common.Session, _ []string) *models.RDSEvidence {
	return pick(f, s, models.SourceRDS, &models.RDSEvidence{RecordErrors: none()})
}
