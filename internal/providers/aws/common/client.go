package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Session is a resolved AWS credential context: either the base session loaded
// from the shared config files, or a session obtained by assuming a role into
// another account. It is the unit handed to collectors.
type Session struct {
	// ProfileName is the name from ~/.aws/config or "default".
	ProfileName string

	// AccountID is the account the session's credentials belong to. It is
	// empty for a base session whose identity could not be resolved.
	AccountID string

	// Region is the home region of the session. Never empty.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config
}

// ConfigForRegion returns a copy of the session config with Region set.
// Use the returned aws.Config to construct region-scoped SDK clients.
func (s *Session) ConfigForRegion(region string) aws.Config {
	regional := s.Config.Copy()
	regional.Region = region
	return regional
}

// GlobalConfig returns a copy of the session config pointed at the region
// that serves global services (IAM, Organizations) in the session's partition.
func (s *Session) GlobalConfig() aws.Config {
	return s.ConfigForRegion(globalRegion(s.Region))
}

// CallerIdentity is the result of STS GetCallerIdentity.
type CallerIdentity struct {
	AccountID string
	ARN       string
}

// Account is one member account discovered through AWS Organizations.
type Account struct {
	ID   string
	Name string
}

// AssumeRoleRequest describes a cross-account role assumption.
type AssumeRoleRequest struct {
	AccountID string
	RoleName  string
	// ExternalID is optional; empty means no external id is sent.
	ExternalID  string
	SessionName string
}

// SessionProvider loads sessions and resolves identities. It is the sole
// entry point for AWS credential management across the provider layer.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type SessionProvider interface {
	// LoadSession returns the base session for the named profile. Pass an
	// empty profile to use the default credential chain. region overrides the
	// profile's configured region when non-empty.
	LoadSession(ctx context.Context, profile, region string) (*Session, error)

	// Identity resolves the caller identity of s.
	Identity(ctx context.Context, s *Session) (CallerIdentity, error)

	// AssumeRole assumes req.RoleName in req.AccountID using base's
	// credentials and returns the resulting session and its identity.
	AssumeRole(ctx context.Context, base *Session, req AssumeRoleRequest) (*Session, CallerIdentity, error)

	// ListActiveAccounts enumerates every ACTIVE account of the organization
	// that s belongs to, in API order.
	ListActiveAccounts(ctx context.Context, s *Session) ([]Account, error)

	// GetActiveRegions returns all regions enabled for the account of s.
	GetActiveRegions(ctx context.Context, s *Session) ([]string, error)
}
