package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// DefaultRoleName is assumed in target accounts when ScanOptions.RoleName is
// empty. AWS Organizations creates it in every member account it provisions.
const DefaultRoleName = "OrganizationAccountAccessRole"

// ScanOptions configures a single scan run.
// It is the sole input to Engine.RunScan.
type ScanOptions struct {
	// Controls lists the control IDs to evaluate, in report order.
	// Empty means controls.DefaultControlIDs.
	Controls []string

	// Regions is an explicit list of AWS regions to scan. When empty the
	// base session's region is used, falling back to us-east-1.
	Regions []string

	// Profile is the named AWS profile to use. Empty means the default
	// credential chain.
	Profile string

	// OutputDir is where the report assembler writes the run directory.
	// The engine itself does not write files.
	OutputDir string

	// AccountIDs lists target accounts to scan explicitly.
	AccountIDs []string

	// AllAccounts adds every ACTIVE account of the organization.
	AllAccounts bool

	// RoleName is assumed in every target account other than the base
	// account. Defaults to DefaultRoleName.
	RoleName string

	// ExternalID is passed to AssumeRole unless ExternalIDs names the
	// account.
	ExternalID string

	// ExternalIDs maps account ids to their own external id.
	ExternalIDs map[string]string

	// Concurrency bounds the number of accounts scanned at once.
	// Zero or negative means 1 (sequential).
	Concurrency int
}

// Engine is the central orchestration interface.
// It resolves the target accounts, builds one evidence context per account,
// and evaluates every requested control, returning the results in canonical
// account order.
//
// Engine never writes artifacts; report assembly is a separate step.
type Engine interface {
	RunScan(ctx context.Context, opts ScanOptions) (*models.ScanOutcome, error)
}
