package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/controls"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// DefaultEngine is the production implementation of Engine.
// It coordinates session handling, evidence collection and control
// evaluation. It never calls the AWS SDK directly; sessions come from a
// common.SessionProvider and evidence from an evidence.Collector.
type DefaultEngine struct {
	sessions  common.SessionProvider
	collector evidence.Collector
	evaluator *controls.Evaluator
	logger    *slog.Logger
}

// NewDefaultEngine constructs a DefaultEngine. A nil logger discards output.
func NewDefaultEngine(
	sessions common.SessionProvider,
	collector evidence.Collector,
	evaluator *controls.Evaluator,
	logger *slog.Logger,
) *DefaultEngine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DefaultEngine{
		sessions:  sessions,
		collector: collector,
		evaluator: evaluator,
		logger:    logger.With("component", "engine"),
	}
}

// scanPlan is the resolved scope shared by every account of a run.
type scanPlan struct {
	base       *common.Session
	identity   models.AccountIdentity
	controlIDs []string
	regions    []string
	orgRecord  *models.OrganizationsEvidence
}

// RunScan implements Engine.
//
// Only a session that cannot be loaded at all is returned as an error. Every
// other failure (identity, organization enumeration, role assumption, API
// calls) is recorded inside the returned outcome.
func (e *DefaultEngine) RunScan(ctx context.Context, opts ScanOptions) (*models.ScanOutcome, error) {
	plan := scanPlan{controlIDs: slices.Clone(opts.Controls)}
	if len(plan.controlIDs) == 0 {
		plan.controlIDs = slices.Clone(controls.DefaultControlIDs)
	}

	var initialRegion string
	if len(opts.Regions) > 0 {
		initialRegion = opts.Regions[0]
	}
	base, err := e.sessions.LoadSession(ctx, opts.Profile, initialRegion)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	plan.base = base

	ident, err := e.sessions.Identity(ctx, base)
	if err != nil {
		e.logger.Warn("caller identity unavailable", "error", err)
		plan.identity.IdentityError = err.Error()
	} else {
		base.AccountID = ident.AccountID
		plan.identity = models.AccountIdentity{AccountID: ident.AccountID, CallerARN: ident.ARN}
	}

	plan.regions = resolveRegions(base, opts.Regions)

	targets, orgErr := e.resolveTargets(ctx, base, opts)

	if e.evaluator.Catalogue().Requires(plan.controlIDs, models.SourceOrganizations) {
		plan.orgRecord = e.collector.Organizations(ctx, base)
	}

	e.logger.Info("scan started",
		"accounts", len(targets),
		"regions", plan.regions,
		"controls", plan.controlIDs,
	)

	results := make([]models.AccountResult, len(targets))
	var g errgroup.Group
	g.SetLimit(max(opts.Concurrency, 1))
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = e.scanAccount(ctx, plan, target, opts)
			return nil
		})
	}
	_ = g.Wait()

	outcome := &models.ScanOutcome{
		Controls: plan.controlIDs,
		Regions:  plan.regions,
		Identity: plan.identity,
		Accounts: results,
	}
	if orgErr != nil {
		outcome.OrganizationError = orgErr.Error()
	}
	return outcome, nil
}

// resolveRegions returns the explicit region list when provided, otherwise
// the base session's region, otherwise us-east-1. Repeated explicit regions
// are dropped; the first occurrence keeps its position.
func resolveRegions(base *common.Session, explicit []string) []string {
	if len(explicit) > 0 {
		out := make([]string, 0, len(explicit))
		for _, r := range explicit {
			if !slices.Contains(out, r) {
				out = append(out, r)
			}
		}
		return out
	}
	if base.Region != "" {
		return []string{base.Region}
	}
	return []string{common.DefaultRegion}
}

// resolveTargets returns the accounts to scan in canonical order: explicit
// ids first (deduplicated, first occurrence wins), then organization
// accounts when requested. With neither configured the base account is the
// only target. An organization enumeration failure is returned alongside
// the explicit targets and never aborts the run.
func (e *DefaultEngine) resolveTargets(ctx context.Context, base *common.Session, opts ScanOptions) ([]common.Account, error) {
	var targets []common.Account
	index := make(map[string]int)
	add := func(a common.Account) {
		if i, seen := index[a.ID]; seen {
			if targets[i].Name == "" {
				targets[i].Name = a.Name
			}
			return
		}
		index[a.ID] = len(targets)
		targets = append(targets, a)
	}

	for _, id := range opts.AccountIDs {
		if id != "" {
			add(common.Account{ID: id})
		}
	}

	var orgErr error
	if opts.AllAccounts {
		accounts, err := e.sessions.ListActiveAccounts(ctx, base)
		if err != nil {
			e.logger.Warn("organization account enumeration failed", "error", err)
			orgErr = err
		}
		for _, a := range accounts {
			add(a)
		}
	}

	if len(opts.AccountIDs) == 0 && !opts.AllAccounts {
		add(common.Account{ID: base.AccountID})
	}
	return targets, orgErr
}

// scanAccount evaluates every requested control against one account. A panic
// anywhere in the pass is recovered and reported as the account's error.
func (e *DefaultEngine) scanAccount(
	ctx context.Context,
	plan scanPlan,
	target common.Account,
	opts ScanOptions,
) (result models.AccountResult) {
	log := e.logger.With("account_id", target.ID)
	result = models.AccountResult{
		AccountID:   target.ID,
		AccountName: target.Name,
		Evidence:    []models.ControlResult{},
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("account scan panicked", "panic", r)
			result.IdentityError = fmt.Sprintf("account scan aborted: %v", r)
			result.Evidence = []models.ControlResult{}
		}
	}()

	sess := plan.base
	if target.ID == plan.base.AccountID {
		result.CallerARN = plan.identity.CallerARN
		result.IdentityError = plan.identity.IdentityError
	} else {
		assumed, ident, err := e.sessions.AssumeRole(ctx, plan.base, common.AssumeRoleRequest{
			AccountID:  target.ID,
			RoleName:   roleName(opts),
			ExternalID: externalID(opts, target.ID),
		})
		if err != nil {
			log.Warn("role assumption failed", "error", err)
			result.IdentityError = err.Error()
			return result
		}
		sess = assumed
		result.CallerARN = ident.ARN
	}

	log.Debug("account scan started")
	ec := evidence.NewContext(sess, plan.regions, e.collector)
	if plan.orgRecord != nil {
		ec.Seed(plan.orgRecord)
	}
	for _, id := range plan.controlIDs {
		result.Evidence = append(result.Evidence, e.evaluator.Evaluate(ctx, id, ec))
	}
	log.Info("account scan finished", "controls", len(result.Evidence), "sources_collected", ec.Len())
	return result
}

func roleName(opts ScanOptions) string {
	if opts.RoleName != "" {
		return opts.RoleName
	}
	return DefaultRoleName
}

// externalID applies the precedence per-account map, then global value.
func externalID(opts ScanOptions, accountID string) string {
	if id, ok := opts.ExternalIDs[accountID]; ok && id != "" {
		return id
	}
	return opts.ExternalID
}
