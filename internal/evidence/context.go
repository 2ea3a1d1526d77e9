// Package evidence holds the per-account evidence cache that control
// evaluators read from. A Context guarantees that each evidence source is
// fetched at most once per account, however many controls consult it.
package evidence

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// Collector gathers one evidence record per call. Implementations never
// return Go errors: every API failure is recorded as a string in the
// record's errors list.
//
// Global services ignore regions.
type Collector interface {
	Organizations(ctx context.Context, sess *common.Session) *models.OrganizationsEvidence
	CloudTrail(ctx context.Context, sess *common.Session, regions []string) *models.CloudTrailEvidence
	CloudWatch(ctx context.Context, sess *common.Session, regions []string) *models.CloudWatchEvidence
	VPC(ctx context.Context, sess *common.Session, regions []string) *models.VPCEvidence
	SecurityHub(ctx context.Context, sess *common.Session, regions []string) *models.SecurityHubEvidence
	GuardDuty(ctx context.Context, sess *common.Session, regions []string) *models.GuardDutyEvidence
	Inspector(ctx context.Context, sess *common.Session, regions []string) *models.InspectorEvidence
	ConfigRules(ctx context.Context, sess *common.Session, regions []string) *models.ConfigRulesEvidence
	ConfigRecorders(ctx context.Context, sess *common.Session, regions []string) *models.ConfigRecorderEvidence
	Backup(ctx context.Context, sess *common.Session, regions []string) *models.BackupEvidence
	IAM(ctx context.Context, sess *common.Session) *models.IAMEvidence
	AccessAnalyzer(ctx context.Context, sess *common.Session, regions []string) *models.AccessAnalyzerEvidence
	SSM(ctx context.Context, sess *common.Session, regions []string) *models.SSMEvidence
	CodePipeline(ctx context.Context, sess *common.Session, regions []string) *models.CodePipelineEvidence
	CodeBuild(ctx context.Context, sess *common.Session, regions []string) *models.CodeBuildEvidence
	KMS(ctx context.Context, sess *common.Session, regions []string) *models.KMSEvidence
	WAF(ctx context.Context, sess *common.Session, regions []string) *models.WAFEvidence
	S3(ctx context.Context, sess *common.Session) *models.S3Evidence
	RDS(ctx context.Context, sess *common.Session, regions []string) *models.RDSEvidence
}

// Context is one account's evidence cache. It is owned by a single
// evaluation pass and is not safe for concurrent use.
type Context struct {
	Session *common.Session
	Regions []string

	collector Collector
	records   map[models.EvidenceSource]models.EvidenceRecord
}

// NewContext returns an empty cache for sess. regions is copied.
func NewContext(sess *common.Session, regions []string, collector Collector) *Context {
	return &Context{
		Session:   sess,
		Regions:   append([]string(nil), regions...),
		collector: collector,
		records:   make(map[models.EvidenceSource]models.EvidenceRecord),
	}
}

// GetOrCollect returns the cached record for src, or invokes collect once and
// caches its result. Records carrying collection errors are cached as well;
// a failed source is not retried within the same context.
func GetOrCollect[T models.EvidenceRecord](c *Context, src models.EvidenceSource, collect func() T) T {
	if rec, ok := c.records[src]; ok {
		if typed, ok := rec.(T); ok {
			return typed
		}
	}
	rec := collect()
	c.records[src] = rec
	return rec
}

// Seed stores a record collected elsewhere, keyed by its own source.
// A later GetOrCollect for that source returns rec without collecting.
func (c *Context) Seed(rec models.EvidenceRecord) {
	if rec == nil {
		return
	}
	c.records[rec.Source()] = rec
}

// Has reports whether src has already been collected or seeded.
func (c *Context) Has(src models.EvidenceSource) bool {
	_, ok := c.records[src]
	return ok
}

// Len returns the number of cached sources.
func (c *Context) Len() int { return len(c.records) }

// ---------------------------------------------------------------------------
// Typed accessors
// ---------------------------------------------------------------------------

func (c *Context) Organizations(ctx context.Context) *models.OrganizationsEvidence {
	return GetOrCollect(c, models.SourceOrganizations, func() *models.OrganizationsEvidence {
		return c.collector.Organizations(ctx, c.Session)
	})
}

func (c *Context) CloudTrail(ctx context.Context) *models.CloudTrailEvidence {
	return GetOrCollect(c, models.SourceCloudTrail, func() *models.CloudTrailEvidence {
		return c.collector.CloudTrail(ctx, c.Session, c.Regions)
	})
}

func (c *Context) CloudWatch(ctx context.Context) *models.CloudWatchEvidence {
	return GetOrCollect(c, models.SourceCloudWatch, func() *models.CloudWatchEvidence {
		return c.collector.CloudWatch(ctx, c.Session, c.Regions)
	})
}

func (c *Context) VPC(ctx context.Context) *models.VPCEvidence {
	return GetOrCollect(c, models.SourceVPC, func() *models.VPCEvidence {
		return c.collector.VPC(ctx, c.Session, c.Regions)
	})
}

func (c *Context) SecurityHub(ctx context.Context) *models.SecurityHubEvidence {
	return GetOrCollect(c, models.SourceSecurityHub, func() *models.SecurityHubEvidence {
		return c.collector.SecurityHub(ctx, c.Session, c.Regions)
	})
}

func (c *Context) GuardDuty(ctx context.Context) *models.GuardDutyEvidence {
	return GetOrCollect(c, models.SourceGuardDuty, func() *models.GuardDutyEvidence {
		return c.collector.GuardDuty(ctx, c.Session, c.Regions)
	})
}

func (c *Context) Inspector(ctx context.Context) *models.InspectorEvidence {
	return GetOrCollect(c, models.SourceInspector, func() *models.InspectorEvidence {
		return c.collector.Inspector(ctx, c.Session, c.Regions)
	})
}

func (c *Context) ConfigRules(ctx context.Context) *models.ConfigRulesEvidence {
	return GetOrCollect(c, models.SourceConfigRules, func() *models.ConfigRulesEvidence {
		return c.collector.ConfigRules(ctx, c.Session, c.Regions)
	})
}

func (c *Context) ConfigRecorders(ctx context.Context) *models.ConfigRecorderEvidence {
	return GetOrCollect(c, models.SourceConfig, func() *models.ConfigRecorderEvidence {
		return c.collector.ConfigRecorders(ctx, c.Session, c.Regions)
	})
}

func (c *Context) Backup(ctx context.Context) *models.BackupEvidence {
	return GetOrCollect(c, models.SourceBackup, func() *models.BackupEvidence {
		return c.collector.Backup(ctx, c.Session, c.Regions)
	})
}

func (c *Context) IAM(ctx context.Context) *models.IAMEvidence {
	return GetOrCollect(c, models.SourceIAM, func() *models.IAMEvidence {
		return c.collector.IAM(ctx, c.Session)
	})
}

func (c *Context) AccessAnalyzer(ctx context.Context) *models.AccessAnalyzerEvidence {
	return GetOrCollect(c, models.SourceAccessAnalyzer, func() *models.AccessAnalyzerEvidence {
		return c.collector.AccessAnalyzer(ctx, c.Session, c.Regions)
	})
}

func (c *Context) SSM(ctx context.Context) *models.SSMEvidence {
	return GetOrCollect(c, models.SourceSSM, func() *models.SSMEvidence {
		return c.collector.SSM(ctx, c.Session, c.Regions)
	})
}

func (c *Context) CodePipeline(ctx context.Context) *models.CodePipelineEvidence {
	return GetOrCollect(c, models.SourceCodePipeline, func() *models.CodePipelineEvidence {
		return c.collector.CodePipeline(ctx, c.Session, c.Regions)
	})
}

func (c *Context) CodeBuild(ctx context.Context) *models.CodeBuildEvidence {
	return GetOrCollect(c, models.SourceCodeBuild, func() *models.CodeBuildEvidence {
		return c.collector.CodeBuild(ctx, c.Session, c.Regions)
	})
}

func (c *Context) KMS(ctx context.Context) *models.KMSEvidence {
	return GetOrCollect(c, models.SourceKMS, func() *models.KMSEvidence {
		return c.collector.KMS(ctx, c.Session, c.Regions)
	})
}

func (c *Context) WAF(ctx context.Context) *models.WAFEvidence {
	return GetOrCollect(c, models.SourceWAF, func() *models.WAFEvidence {
		return c.collector.WAF(ctx, c.Session, c.Regions)
	})
}

func (c *Context) S3(ctx context.Context) *models.S3Evidence {
	return GetOrCollect(c, models.SourceS3, func() *models.S3Evidence {
		return c.collector.S3(ctx, c.Session)
	})
}

func (c *Context) RDS(ctx context.Context) *models.RDSEvidence {
	return GetOrCollect(c, models.SourceRDS, func() *models.RDSEvidence {
		return c.collector.RDS(ctx, c.Session, c.Regions)
	})
}
