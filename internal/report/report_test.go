package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

var generatedAt = time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

func sampleOutcome() *models.ScanOutcome {
	rules := &models.ConfigRulesEvidence{RuleCount: 4, NoncompliantCount: 3, RecordErrors: models.NewRecordErrors(nil)}
	return &models.ScanOutcome{
		Controls: []string{"CC1", "CC4", "CC42"},
		Regions:  []string{"us-east-1"},
		Identity: models.AccountIdentity{AccountID: "111111111111", CallerARN: "arn:aws:iam::111111111111:user/auditor"},
		Accounts: []models.AccountResult{
			{
				AccountID: "111111111111",
				Evidence: []models.ControlResult{
					{ControlID: "CC1", Title: "Control Environment", Status: models.StatusFail,
						EvidenceSources: []models.EvidenceSource{models.SourceOrganizations}, CollectedAt: generatedAt,
						Gaps: []string{"No Service Control Policies detected."}, Errors: []string{}, Data: map[models.EvidenceSource]models.EvidenceRecord{}},
					{ControlID: "CC4", Title: "Monitoring Activities", Status: models.StatusNeedsReview,
						EvidenceSources: []models.EvidenceSource{models.SourceConfigRules}, CollectedAt: generatedAt,
						Gaps: []string{}, Errors: []string{"cloudwatch:us-east-1: AccessDeniedException: denied"},
						Data: map[models.EvidenceSource]models.EvidenceRecord{models.SourceConfigRules: rules}},
					{ControlID: "CC42", Status: models.StatusNotImplemented, EvidenceSources: []models.EvidenceSource{},
						CollectedAt: generatedAt, Gaps: []string{"No evidence collector implemented for this control."},
						Errors: []string{}, Data: map[models.EvidenceSource]models.EvidenceRecord{}},
				},
			},
			{AccountID: "222222222222", AccountName: "staging", IdentityError: "assume role: AccessDenied", Evidence: []models.ControlResult{}},
		},
	}
}

func newTestAssembler(dir string, rec *Recommender) *Assembler {
	a := NewAssembler(dir, rec, nil)
	a.Now = func() time.Time { return generatedAt }
	a.NewScanID = func() string { return "00000000-0000-4000-8000-000000000001" }
	return a
}

func TestRunID(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	assert.Equal(t, "scan-20260301T090507Z", RunID(generatedAt))
	assert.Equal(t, "scan-20260301T090507Z", RunID(generatedAt.In(loc)))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleOutcome().Accounts)

	assert.Equal(t, models.RunSummary{
		AccountCount:       2,
		FailedAccountCount: 1,
		ControlResultCount: 3,
		Fail:               1,
		NeedsReview:        1,
		NotImplemented:     1,
		Evaluated:          2,
		Determined:         1,
	}, s)
}

func TestBuildPayload_NilListsBecomeEmpty(t *testing.T) {
	p := BuildPayload(&models.ScanOutcome{OrganizationError: "denied"}, generatedAt, "id")

	assert.NotNil(t, p.Controls)
	assert.NotNil(t, p.Regions)
	assert.NotNil(t, p.Accounts)
	assert.Equal(t, "denied", p.OrganizationError)

	raw, err := EncodeEvidence(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"accounts":[]`)
}

func TestEncodeEvidence_IsCanonical(t *testing.T) {
	raw, err := EncodeEvidence(BuildPayload(sampleOutcome(), generatedAt, "id"))
	require.NoError(t, err)

	s := string(raw)
	assert.True(t, strings.HasSuffix(s, "}\n"))
	assert.NotContains(t, strings.TrimSuffix(s, "\n"), "\n", "canonical JSON has no insignificant whitespace")
	// Object members are sorted by key.
	assert.Less(t, strings.Index(s, `"account_id"`), strings.Index(s, `"accounts"`))
	assert.Less(t, strings.Index(s, `"regions"`), strings.Index(s, `"run_id"`))

	again, err := EncodeEvidence(BuildPayload(sampleOutcome(), generatedAt, "id"))
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "scan-20260301T090507Z", decoded["run_id"])
}

func TestEncodeSummary(t *testing.T) {
	raw, err := EncodeSummary(BuildPayload(sampleOutcome(), generatedAt, "id"))
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per result of the scanned account")
	assert.Equal(t, summaryHeader, rows[0])
	assert.Equal(t, []string{"111111111111", "", "CC1", "Control Environment", "fail", "1", "0", "0"}, rows[1])
	assert.Equal(t, []string{"111111111111", "", "CC4", "Monitoring Activities", "needs_review", "0", "1", "3"}, rows[2])
	assert.Equal(t, "not_implemented", rows[3][4])
}

func TestRecommender(t *testing.T) {
	r := NewRecommender(map[string]string{
		"No Service Control Policies detected.": "Use the org guardrail baseline.",
		"custom: exact error":                   "Open a ticket.",
	})

	assert.Equal(t, "Use the org guardrail baseline.", r.ForGap("No Service Control Policies detected."))
	assert.Equal(t, "Enable MFA on the root user and store the device securely.", r.ForGap("Root account MFA is not enabled."))
	assert.Equal(t, GenericRecommendation, r.ForGap("something new"))

	assert.Equal(t, "Open a ticket.", r.ForError("custom: exact error"))
	assert.Contains(t, r.ForError("iam: AccessDeniedException: nope"), "read-only access")
	assert.Equal(t, GenericRecommendation, r.ForError("ec2:us-east-1: boom"))

	// Overrides never leak into the shared default table.
	assert.NotEqual(t, "Use the org guardrail baseline.", NewRecommender(nil).ForGap("No Service Control Policies detected."))
}

func TestRenderMarkdown(t *testing.T) {
	md := string(RenderMarkdown(BuildPayload(sampleOutcome(), generatedAt, "scan-uuid"), NewRecommender(nil)))

	assert.Contains(t, md, "# SOC 2 Evidence Report")
	assert.Contains(t, md, "- Run ID: `scan-20260301T090507Z`")
	assert.Contains(t, md, "| 2 | 1 | 0 | 1 | 1 | 1 |")
	assert.Contains(t, md, "## Account 111111111111\n")
	assert.Contains(t, md, "| CC1 | Control Environment | fail | 1 | 0 |")
	assert.Contains(t, md, "| CC1 | No Service Control Policies detected. | Attach Service Control Policies")
	assert.Contains(t, md, "### Collection errors")
	assert.Contains(t, md, "## Account 222222222222 (staging)")
	assert.Contains(t, md, "**Error:** assume role: AccessDenied")
	assert.Contains(t, md, "No controls were evaluated for this account.")
}

func TestCell_EscapesPipes(t *testing.T) {
	assert.Equal(t, `a \| b c`, cell("a | b\nc"))
}

func TestAssemble_WritesBundleAndVerifies(t *testing.T) {
	dir := t.TempDir()

	arts, err := newTestAssembler(dir, nil).Assemble(sampleOutcome())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scan-20260301T090507Z"), arts.RunDir)
	assert.Equal(t, "00000000-0000-4000-8000-000000000001", arts.Payload.ScanID)
	require.Len(t, arts.Paths, 6)
	for _, name := range []string{EvidenceFile, SummaryFile, ReportFile} {
		assert.FileExists(t, filepath.Join(arts.RunDir, name))
		hash, err := os.ReadFile(filepath.Join(arts.RunDir, name+HashSuffix))
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{64}  `+regexpQuote(name)+`\n$`, string(hash))
	}

	results, err := VerifyPath(arts.RunDir)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.OK, r.HashFile)
	}
}

func TestVerify_DetectsTamperingAndMissingArtifacts(t *testing.T) {
	arts, err := newTestAssembler(t.TempDir(), nil).Assemble(sampleOutcome())
	require.NoError(t, err)

	evidencePath := filepath.Join(arts.RunDir, EvidenceFile)
	require.NoError(t, os.WriteFile(evidencePath, []byte("{}\n"), 0o644))
	res, err := Verify(evidencePath + HashSuffix)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "digest mismatch", res.Problem)
	assert.Equal(t, Digest([]byte("{}\n")), res.Actual)

	require.NoError(t, os.Remove(filepath.Join(arts.RunDir, ReportFile)))
	res, err = Verify(filepath.Join(arts.RunDir, ReportFile+HashSuffix))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "artifact missing", res.Problem)
}

func TestVerify_MalformedHashFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "x.sha256")
	require.NoError(t, os.WriteFile(bad, []byte("not a digest\n"), 0o644))

	_, err := Verify(bad)
	assert.ErrorContains(t, err, "malformed")

	_, err = VerifyPath(t.TempDir())
	assert.ErrorContains(t, err, "no .sha256 files")
}

func regexpQuote(s string) string {
	return strings.ReplaceAll(s, ".", `\.`)
}

func TestLoadRun_ReadsBackWrittenBundle(t *testing.T) {
	arts, err := newTestAssembler(t.TempDir(), nil).Assemble(sampleOutcome())
	require.NoError(t, err)

	for _, path := range []string{arts.RunDir, filepath.Join(arts.RunDir, EvidenceFile)} {
		run, err := LoadRun(path)
		require.NoError(t, err)
		assert.Equal(t, arts.Payload.RunID, run.RunID)
		require.Len(t, run.Accounts, 2)
		assert.Equal(t, "assume role: AccessDenied", run.Accounts[1].IdentityError)
		assert.Equal(t, sampleOutcome().Accounts[0].Evidence[0].Gaps, run.Accounts[0].Evidence[0].Gaps)
	}
}

func TestLoadRun_Errors(t *testing.T) {
	_, err := LoadRun(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EvidenceFile), []byte("{not json"), 0o644))
	_, err = LoadRun(dir)
	assert.ErrorContains(t, err, "decode")
}

func TestRenderMarkdown_EscapesAccountHeading(t *testing.T) {
	outcome := sampleOutcome()
	outcome.Accounts[1].AccountName = "prod | eu\nlegacy"

	md := string(RenderMarkdown(BuildPayload(outcome, generatedAt, "scan-uuid"), NewRecommender(nil)))

	assert.Contains(t, md, "## Account 222222222222 (prod \\| eu legacy)\n")
	assert.NotContains(t, md, "prod | eu")
}

func TestAssemble_SameSecondDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()

	first, err := newTestAssembler(dir, nil).Assemble(sampleOutcome())
	require.NoError(t, err)
	firstEvidence, err := os.ReadFile(filepath.Join(first.RunDir, EvidenceFile))
	require.NoError(t, err)

	again := newTestAssembler(dir, nil)
	again.NewScanID = func() string { return "abcdef01-0000-4000-8000-000000000002" }
	outcome := sampleOutcome()
	outcome.Accounts = outcome.Accounts[:1]
	second, err := again.Assemble(outcome)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunDir, second.RunDir)
	assert.Equal(t, "scan-20260301T090507Z-abcdef01", second.Payload.RunID)
	assert.Equal(t, filepath.Join(dir, second.Payload.RunID), second.RunDir)

	stored, err := LoadRun(second.RunDir)
	require.NoError(t, err)
	assert.Equal(t, second.Payload.RunID, stored.RunID, "evidence.json carries the directory's run id")

	unchanged, err := os.ReadFile(filepath.Join(first.RunDir, EvidenceFile))
	require.NoError(t, err)
	assert.Equal(t, firstEvidence, unchanged)
	results, err := VerifyPath(first.RunDir)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.OK, r.HashFile)
	}

	_, err = again.Assemble(outcome)
	assert.ErrorContains(t, err, "already exists", "both candidate names are taken")
}

func TestAssemble_LeavesNoTempFiles(t *testing.T) {
	arts, err := newTestAssembler(t.TempDir(), nil).Assemble(sampleOutcome())
	require.NoError(t, err)

	entries, err := os.ReadDir(arts.RunDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		EvidenceFile, EvidenceFile + HashSuffix,
		SummaryFile, SummaryFile + HashSuffix,
		ReportFile, ReportFile + HashSuffix,
	}, names)
}

func TestWriteFileAtomic_RenameFailureRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, ReportFile)
	// A non-empty directory cannot be replaced by a file.
	require.NoError(t, os.MkdirAll(filepath.Join(target, "keep"), 0o755))

	err := writeFileAtomic(target, []byte("report\n"))
	assert.ErrorContains(t, err, "rename temp file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReportFile, entries[0].Name())
}

func TestWriteFileAtomic_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SummaryFile)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	require.NoError(t, writeFileAtomic(path, []byte("new\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
