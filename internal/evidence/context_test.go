package evidence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence/evidencetest"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

func newCtx(c evidence.Collector) *evidence.Context {
	return evidence.NewContext(&common.Session{AccountID: "111111111111", Region: "us-east-1"}, []string{"us-east-1"}, c)
}

func TestGetOrCollect_InvokesCollectorOnce(t *testing.T) {
	fake := evidencetest.New(&models.CloudTrailEvidence{TrailCount: 2, LoggingTrailCount: 1})
	ec := newCtx(fake)

	first := ec.CloudTrail(context.Background())
	second := ec.CloudTrail(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.Calls(models.SourceCloudTrail))
	assert.Equal(t, 2, second.TrailCount)
}

func TestGetOrCollect_MemoizesFailedRecord(t *testing.T) {
	failed := &models.CloudTrailEvidence{RecordErrors: models.NewRecordErrors([]string{"cloudtrail:us-east-1: throttled"})}
	fake := evidencetest.New(failed)
	ec := newCtx(fake)

	ec.CloudTrail(context.Background())
	rec := ec.CloudTrail(context.Background())

	assert.Equal(t, 1, fake.Calls(models.SourceCloudTrail))
	assert.Equal(t, []string{"cloudtrail:us-east-1: throttled"}, rec.CollectionErrors())
}

func TestGetOrCollect_DistinctSourcesCollectedIndependently(t *testing.T) {
	fake := evidencetest.New()
	ec := newCtx(fake)

	ec.CloudTrail(context.Background())
	ec.CloudWatch(context.Background())
	ec.CloudTrail(context.Background())

	assert.Equal(t, 1, fake.Calls(models.SourceCloudTrail))
	assert.Equal(t, 1, fake.Calls(models.SourceCloudWatch))
	assert.Equal(t, 2, ec.Len())
}

func TestSeed_PreventsCollection(t *testing.T) {
	fake := evidencetest.New()
	ec := newCtx(fake)
	seeded := &models.OrganizationsEvidence{OrganizationPresent: true, SCPCount: 3}

	ec.Seed(seeded)
	got := ec.Organizations(context.Background())

	require.True(t, ec.Has(models.SourceOrganizations))
	assert.Same(t, seeded, got)
	assert.Zero(t, fake.Calls(models.SourceOrganizations))
}

func TestSeed_NilIsIgnored(t *testing.T) {
	ec := newCtx(evidencetest.New())
	ec.Seed(nil)
	assert.Zero(t, ec.Len())
}

func TestGenericGetOrCollect(t *testing.T) {
	ec := newCtx(evidencetest.New())
	calls := 0
	collect := func() *models.IAMEvidence {
		calls++
		return &models.IAMEvidence{RootMFAEnabled: true}
	}

	a := evidence.GetOrCollect(ec, models.SourceIAM, collect)
	b := evidence.GetOrCollect(ec, models.SourceIAM, collect)

	assert.Equal(t, 1, calls)
	assert.Same(t, a, b)
}

func TestNewContext_CopiesRegions(t *testing.T) {
	regions := []string{"us-east-1", "eu-west-1"}
	ec := evidence.NewContext(&common.Session{}, regions, evidencetest.New())
	regions[0] = "mutated"
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, ec.Regions)
}
