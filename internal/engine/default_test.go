package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence/evidencetest"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// ── test double ──────────────────────────────────────────────────────────────

// stubSessions satisfies common.SessionProvider without calling AWS.
type stubSessions struct {
	profileRegion string
	loadErr       error
	identity      common.CallerIdentity
	identityErr   error
	accounts      []common.Account
	listErr       error
	assumeErr     map[string]error

	mu       sync.Mutex
	loaded   []string
	assumed  []common.AssumeRoleRequest
	listCall int
}

func (s *stubSessions) LoadSession(_ context.Context, profile, region string) (*common.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.loaded = append(s.loaded, region)
	if region == "" {
		region = s.profileRegion
	}
	return &common.Session{ProfileName: profile, Region: region}, nil
}

func (s *stubSessions) Identity(context.Context, *common.Session) (common.CallerIdentity, error) {
	return s.identity, s.identityErr
}

func (s *stubSessions) AssumeRole(_ context.Context, base *common.Session, req common.AssumeRoleRequest) (*common.Session, common.CallerIdentity, error) {
	s.mu.Lock()
	s.assumed = append(s.assumed, req)
	s.mu.Unlock()
	if err := s.assumeErr[req.AccountID]; err != nil {
		return nil, common.CallerIdentity{}, err
	}
	arn := fmt.Sprintf("arn:aws:sts::%s:assumed-role/%s/scan", req.AccountID, req.RoleName)
	return &common.Session{AccountID: req.AccountID, Region: base.Region},
		common.CallerIdentity{AccountID: req.AccountID, ARN: arn}, nil
}

func (s *stubSessions) ListActiveAccounts(context.Context, *common.Session) ([]common.Account, error) {
	s.listCall++
	return s.accounts, s.listErr
}

func (s *stubSessions) GetActiveRegions(context.Context, *common.Session) ([]string, error) {
	return []string{"us-east-1"}, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

const baseAccount = "111111111111"

func baseSessions() *stubSessions {
	return &stubSessions{
		profileRegion: "eu-west-1",
		identity:      common.CallerIdentity{AccountID: baseAccount, ARN: "arn:aws:iam::111111111111:user/auditor"},
	}
}

func newEngine(s common.SessionProvider, fake *evidencetest.FakeCollector) *DefaultEngine {
	return NewDefaultEngine(s, fake, controls.NewEvaluator(controls.Default()), nil)
}

func accountIDs(res []models.AccountResult) []string {
	ids := make([]string, len(res))
	for i, r := range res {
		ids[i] = r.AccountID
	}
	return ids
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestRunScan_LoadFailureIsFatal(t *testing.T) {
	s := &stubSessions{loadErr: errors.New("profile not found")}

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{Profile: "missing"})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestRunScan_SingleAccountDefaults(t *testing.T) {
	s := baseSessions()
	fake := evidencetest.New()

	out, err := newEngine(s, fake).RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, controls.DefaultControlIDs, out.Controls)
	assert.Equal(t, []string{"eu-west-1"}, out.Regions, "session region is used when none is given")
	assert.Equal(t, baseAccount, out.Identity.AccountID)
	assert.Empty(t, s.assumed, "base account must reuse the base session")

	require.Len(t, out.Accounts, 1)
	acct := out.Accounts[0]
	assert.Equal(t, baseAccount, acct.AccountID)
	assert.Equal(t, "arn:aws:iam::111111111111:user/auditor", acct.CallerARN)
	require.Len(t, acct.Evidence, len(controls.DefaultControlIDs))
	for i, id := range controls.DefaultControlIDs {
		assert.Equal(t, id, acct.Evidence[i].ControlID)
	}
}

func TestRunScan_ExplicitRegionsSeedTheSession(t *testing.T) {
	s := baseSessions()

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{
		Regions:  []string{"us-west-2", "eu-central-1"},
		Controls: []string{"CC2"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"us-west-2", "eu-central-1"}, out.Regions)
	assert.Equal(t, []string{"us-west-2"}, s.loaded)
}

func TestRunScan_RepeatedRegionsCollapsedInOrder(t *testing.T) {
	out, err := newEngine(baseSessions(), evidencetest.New()).RunScan(context.Background(), ScanOptions{
		Regions:  []string{"us-east-1", "eu-west-1", "us-east-1", "eu-west-1", "ap-south-1"},
		Controls: []string{"CC7"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"us-east-1", "eu-west-1", "ap-south-1"}, out.Regions)
}

func TestResolveRegions(t *testing.T) {
	explicit := []string{"us-west-2", "us-west-2"}
	assert.Equal(t, []string{"us-west-2"}, resolveRegions(&common.Session{Region: "eu-west-1"}, explicit))
	assert.Len(t, explicit, 2, "caller's slice is left untouched")
	assert.Equal(t, []string{"eu-west-1"}, resolveRegions(&common.Session{Region: "eu-west-1"}, nil))
	assert.Equal(t, []string{common.DefaultRegion}, resolveRegions(&common.Session{}, nil))
}

func TestRunScan_IdentityFailureIsAdvisory(t *testing.T) {
	s := baseSessions()
	s.identity = common.CallerIdentity{}
	s.identityErr = errors.New("STS GetCallerIdentity: expired token")

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{Controls: []string{"CC6"}})
	require.NoError(t, err)

	assert.Equal(t, "STS GetCallerIdentity: expired token", out.Identity.IdentityError)
	require.Len(t, out.Accounts, 1)
	assert.Len(t, out.Accounts[0].Evidence, 1, "the run still evaluates with the base session")
}

// Two explicit accounts; role assumption into the second fails. The first
// account is scanned normally and the run continues.
func TestRunScan_AssumeRoleFailureIsScopedToAccount(t *testing.T) {
	s := baseSessions()
	s.assumeErr = map[string]error{"222222222222": errors.New("assume role arn:aws:iam::222222222222:role/Audit: AccessDenied")}
	fake := evidencetest.New()

	out, err := newEngine(s, fake).RunScan(context.Background(), ScanOptions{
		AccountIDs: []string{baseAccount, "222222222222"},
		RoleName:   "Audit",
		Controls:   []string{"CC1", "CC2"},
	})
	require.NoError(t, err)

	require.Len(t, out.Accounts, 2)
	ok, failed := out.Accounts[0], out.Accounts[1]

	assert.Equal(t, baseAccount, ok.AccountID)
	assert.Empty(t, ok.IdentityError)
	assert.Len(t, ok.Evidence, 2)

	assert.Equal(t, "222222222222", failed.AccountID)
	assert.Contains(t, failed.IdentityError, "AccessDenied")
	assert.Empty(t, failed.Evidence)
	assert.NotNil(t, failed.Evidence)
	assert.True(t, failed.Failed())

	require.Len(t, s.assumed, 1)
	assert.Equal(t, "Audit", s.assumed[0].RoleName)
	assert.Zero(t, fake.CallsFor("222222222222", models.SourceCloudTrail))
}

func TestRunScan_TargetsDeduplicatedInOrder(t *testing.T) {
	s := baseSessions()
	s.accounts = []common.Account{
		{ID: "333333333333", Name: "prod"},
		{ID: "222222222222", Name: "staging"},
		{ID: "444444444444", Name: "sandbox"},
	}

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{
		AccountIDs:  []string{"222222222222", baseAccount, "222222222222"},
		AllAccounts: true,
		Controls:    []string{"CC8"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"222222222222", baseAccount, "333333333333", "444444444444"}, accountIDs(out.Accounts))
	assert.Equal(t, "staging", out.Accounts[0].AccountName, "organization names fill explicit targets")
	assert.Equal(t, "prod", out.Accounts[2].AccountName)
	assert.Empty(t, out.OrganizationError)
}

func TestRunScan_OrganizationErrorFallsBackToExplicitIDs(t *testing.T) {
	s := baseSessions()
	s.listErr = errors.New("organizations ListAccounts: AccessDeniedException")

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{
		AccountIDs:  []string{"222222222222"},
		AllAccounts: true,
		Controls:    []string{"CC8"},
	})
	require.NoError(t, err)

	assert.Equal(t, "organizations ListAccounts: AccessDeniedException", out.OrganizationError)
	assert.Equal(t, []string{"222222222222"}, accountIDs(out.Accounts))
}

func TestRunScan_OrganizationErrorWithoutExplicitIDsScansNothing(t *testing.T) {
	s := baseSessions()
	s.listErr = errors.New("denied")

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{AllAccounts: true})
	require.NoError(t, err)

	assert.Equal(t, "denied", out.OrganizationError)
	assert.Empty(t, out.Accounts)
}

func TestRunScan_OrganizationEvidenceHoistedOnce(t *testing.T) {
	s := baseSessions()
	s.accounts = []common.Account{{ID: baseAccount}, {ID: "222222222222"}, {ID: "333333333333"}}
	fake := evidencetest.New(&models.OrganizationsEvidence{
		OrganizationPresent: true,
		SCPCount:            2,
		RecordErrors:        models.NewRecordErrors(nil),
	})

	out, err := newEngine(s, fake).RunScan(context.Background(), ScanOptions{
		AllAccounts: true,
		Controls:    []string{"CC1", "CC5"},
		Concurrency: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.Calls(models.SourceOrganizations))
	assert.Equal(t, 1, fake.CallsFor(baseAccount, models.SourceOrganizations))
	for _, acct := range out.Accounts {
		require.Len(t, acct.Evidence, 2)
		assert.Same(t, acct.Evidence[0].Data[models.SourceOrganizations], acct.Evidence[1].Data[models.SourceOrganizations])
		assert.Equal(t, 1, fake.CallsFor(acct.AccountID, models.SourceCloudTrail), "cloudtrail collected once per account")
	}
}

func TestRunScan_NoHoistWhenNotRequired(t *testing.T) {
	fake := evidencetest.New()

	_, err := newEngine(baseSessions(), fake).RunScan(context.Background(), ScanOptions{Controls: []string{"CC2", "CC42"}})
	require.NoError(t, err)

	assert.Zero(t, fake.Calls(models.SourceOrganizations))
}

func TestRunScan_ExternalIDPrecedence(t *testing.T) {
	s := baseSessions()

	_, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{
		AccountIDs:  []string{"222222222222", "333333333333"},
		ExternalID:  "global",
		ExternalIDs: map[string]string{"333333333333": "per-account"},
		Controls:    []string{"CC8"},
	})
	require.NoError(t, err)

	require.Len(t, s.assumed, 2)
	got := map[string]string{}
	for _, req := range s.assumed {
		got[req.AccountID] = req.ExternalID
		assert.Equal(t, DefaultRoleName, req.RoleName)
	}
	assert.Equal(t, map[string]string{"222222222222": "global", "333333333333": "per-account"}, got)
}

func TestRunScan_ConcurrentResultsKeepCanonicalOrder(t *testing.T) {
	s := baseSessions()
	want := []string{"555555555555", "222222222222", "444444444444", "333333333333", "666666666666"}

	out, err := newEngine(s, evidencetest.New()).RunScan(context.Background(), ScanOptions{
		AccountIDs:  want,
		Concurrency: 4,
		Controls:    []string{"CC3"},
	})
	require.NoError(t, err)

	assert.Equal(t, want, accountIDs(out.Accounts))
}

func TestRunScan_PanicIsRecordedPerAccount(t *testing.T) {
	s := baseSessions()
	fake := evidencetest.New()
	fake.PanicFor = map[string]bool{"222222222222": true}

	out, err := newEngine(s, fake).RunScan(context.Background(), ScanOptions{
		AccountIDs:  []string{"222222222222", "333333333333"},
		Concurrency: 2,
		Controls:    []string{"CC2"},
	})
	require.NoError(t, err)

	require.Len(t, out.Accounts, 2)
	assert.Contains(t, out.Accounts[0].IdentityError, "account scan aborted")
	assert.Empty(t, out.Accounts[0].Evidence)
	assert.Empty(t, out.Accounts[1].IdentityError)
	assert.Len(t, out.Accounts[1].Evidence, 1)
}

func TestExternalID(t *testing.T) {
	opts := ScanOptions{ExternalID: "g", ExternalIDs: map[string]string{"a": "x", "b": ""}}
	assert.Equal(t, "x", externalID(opts, "a"))
	assert.Equal(t, "g", externalID(opts, "b"), "empty per-account value falls through")
	assert.Equal(t, "g", externalID(opts, "c"))
	assert.Equal(t, "", externalID(ScanOptions{}, "c"))
}
