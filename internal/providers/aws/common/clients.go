package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by the session layer. Narrow
// interfaces make mocking in unit tests trivial: create a struct that
// satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used for identity resolution and
// role assumption. It satisfies stscreds.AssumeRoleAPIClient.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)

	AssumeRole(
		ctx context.Context,
		params *sts.AssumeRoleInput,
		optFns ...func(*sts.Options),
	) (*sts.AssumeRoleOutput, error)
}

// EC2RegionClient is the subset of EC2 operations used for region discovery.
type EC2RegionClient interface {
	DescribeRegions(
		ctx context.Context,
		params *ec2.DescribeRegionsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeRegionsOutput, error)
}

// OrganizationsClient covers account enumeration. It embeds the SDK paginator
// client interface so organizations.NewListAccountsPaginator can drive it.
type OrganizationsClient interface {
	organizations.ListAccountsAPIClient
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds AWS service clients for one aws.Config. All fields are
// interfaces so they can be replaced with mocks in tests.
type ClientSet struct {
	STS           STSClient
	EC2           EC2RegionClient
	Organizations OrganizationsClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS:           sts.NewFromConfig(cfg),
		EC2:           ec2.NewFromConfig(cfg),
		Organizations: organizations.NewFromConfig(cfg),
	}
}
