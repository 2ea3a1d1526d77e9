package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultRegion is used when neither the caller nor the profile names one.
const DefaultRegion = "us-east-1"

// DefaultRoleSessionName identifies scanner sessions in CloudTrail.
const DefaultRoleSessionName = "soc2-evidence-scan"

// DefaultSessionProvider is the production implementation of SessionProvider.
// It reads credentials from the standard AWS shared config and credentials
// files (~/.aws/config and ~/.aws/credentials) using the AWS SDK v2.
//
// Inject a custom ClientFactory via NewDefaultSessionProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultSessionProvider struct {
	factory ClientFactory
}

// NewDefaultSessionProvider returns a provider backed by the real AWS SDK.
func NewDefaultSessionProvider() *DefaultSessionProvider {
	return &DefaultSessionProvider{factory: NewClientSet}
}

// NewDefaultSessionProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultSessionProviderWithFactory(f ClientFactory) *DefaultSessionProvider {
	return &DefaultSessionProvider{factory: f}
}

// ---------------------------------------------------------------------------
// SessionProvider implementation
// ---------------------------------------------------------------------------

// LoadSession loads the AWS SDK config for the named profile. It does not
// call AWS; use Identity to verify the credentials.
func (p *DefaultSessionProvider) LoadSession(ctx context.Context, profile, region string) (*Session, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}

	// Fall back to us-east-1 when the profile has no region configured so
	// that all SDK clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	return &Session{
		ProfileName: profileDisplayName(profile),
		Region:      cfg.Region,
		Config:      cfg,
	}, nil
}

// Identity calls STS GetCallerIdentity with the session's credentials.
func (p *DefaultSessionProvider) Identity(ctx context.Context, s *Session) (CallerIdentity, error) {
	out, err := p.factory(s.Config).STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return CallerIdentity{}, fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return CallerIdentity{}, errors.New("STS GetCallerIdentity returned nil account")
	}
	return CallerIdentity{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
	}, nil
}

// AssumeRole assumes the named role in the target account. The credentials
// are retrieved eagerly so that an access-denied failure surfaces here rather
// than inside the first collector call.
func (p *DefaultSessionProvider) AssumeRole(ctx context.Context, base *Session, req AssumeRoleRequest) (*Session, CallerIdentity, error) {
	roleARN := RoleARN(PartitionForRegion(base.Region), req.AccountID, req.RoleName)
	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}

	provider := stscreds.NewAssumeRoleProvider(p.factory(base.Config).STS, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = sessionName
		o.Duration = time.Hour
		if req.ExternalID != "" {
			o.ExternalID = aws.String(req.ExternalID)
		}
	})

	cfg := base.Config.Copy()
	cfg.Credentials = aws.NewCredentialsCache(provider)
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, CallerIdentity{}, fmt.Errorf("assume role %s: %w", roleARN, err)
	}

	sess := &Session{
		ProfileName: base.ProfileName,
		AccountID:   req.AccountID,
		Region:      base.Region,
		Config:      cfg,
	}

	ident, err := p.Identity(ctx, sess)
	if err != nil {
		return nil, CallerIdentity{}, fmt.Errorf("verify assumed role %s: %w", roleARN, err)
	}
	if ident.AccountID != "" {
		sess.AccountID = ident.AccountID
	}
	return sess, ident, nil
}

// ListActiveAccounts pages through organizations:ListAccounts and keeps only
// accounts in the ACTIVE state.
func (p *DefaultSessionProvider) ListActiveAccounts(ctx context.Context, s *Session) ([]Account, error) {
	client := p.factory(s.GlobalConfig()).Organizations
	pager := organizations.NewListAccountsPaginator(client, &organizations.ListAccountsInput{})

	var accounts []Account
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("organizations ListAccounts: %w", err)
		}
		for _, acct := range page.Accounts {
			//nolint:staticcheck // Status is still populated alongside State.
			if acct.Status != orgtypes.AccountStatusActive {
				continue
			}
			id := aws.ToString(acct.Id)
			if id == "" {
				continue
			}
			accounts = append(accounts, Account{ID: id, Name: aws.ToString(acct.Name)})
		}
	}
	return accounts, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the account of s. It uses EC2 DescribeRegions, which works correctly
// regardless of the client's home region.
func (p *DefaultSessionProvider) GetActiveRegions(ctx context.Context, s *Session) ([]string, error) {
	out, err := p.factory(s.Config).EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into; it excludes disabled / not-subscribed regions.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", s.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ---------------------------------------------------------------------------
// ARN and partition helpers
// ---------------------------------------------------------------------------

// RoleARN builds the ARN of roleName in accountID.
func RoleARN(partition, accountID, roleName string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, roleName)
}

// PartitionForRegion maps a region name to its AWS partition.
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	default:
		return "aws"
	}
}

// globalRegion returns the region that fronts global services in the
// partition of region.
func globalRegion(region string) string {
	switch PartitionForRegion(region) {
	case "aws-cn":
		return "cn-northwest-1"
	case "aws-us-gov":
		return "us-gov-west-1"
	default:
		return DefaultRegion
	}
}

// ---------------------------------------------------------------------------
// Shared config profile discovery
// ---------------------------------------------------------------------------

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// ListProfiles reads ~/.aws/credentials and ~/.aws/config and returns the
// deduplicated list of all profile names found.
func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return listProfilesIn(
		filepath.Join(home, ".aws", "credentials"),
		filepath.Join(home, ".aws", "config"),
	)
}

func listProfilesIn(credentialsPath, configPath string) ([]string, error) {
	// ~/.aws/credentials: section headers are the bare profile name.
	credProfiles, err := parseProfilesFromFile(credentialsPath, false)
	if err != nil {
		return nil, err
	}

	// ~/.aws/config: non-default profiles are prefixed with "profile ".
	cfgProfiles, err := parseProfilesFromFile(configPath, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header. sso-session and services
// sections are not profiles and are skipped.
//
// If the file does not exist, nil is returned without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := strings.TrimSpace(line[1 : len(line)-1])
		if strings.HasPrefix(name, "sso-session ") || strings.HasPrefix(name, "services ") {
			continue
		}
		if stripProfilePrefix && name != "default" {
			name = strings.TrimSpace(strings.TrimPrefix(name, "profile "))
		}
		profiles = append(profiles, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
