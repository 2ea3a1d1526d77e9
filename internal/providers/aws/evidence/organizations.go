package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// Organizations reports whether the account belongs to an organization and
// counts its roots, service control policies and member accounts. Each call
// fails independently; a member account without organizations:List* access
// still reports organization_present.
func (c *DefaultCollector) Organizations(ctx context.Context, sess *common.Session) *models.OrganizationsEvidence {
	client := c.global(sess).Organizations
	var errs []string
	rec := &models.OrganizationsEvidence{}

	if _, err := client.DescribeOrganization(ctx, &organizations.DescribeOrganizationInput{}); err != nil {
		errs = append(errs, formatError("organizations", "", err))
	} else {
		rec.OrganizationPresent = true
	}

	roots := organizations.NewListRootsPaginator(client, &organizations.ListRootsInput{})
	for roots.HasMorePages() {
		page, err := roots.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("organizations", "", err))
			break
		}
		rec.RootCount += len(page.Roots)
	}

	policies := organizations.NewListPoliciesPaginator(client, &organizations.ListPoliciesInput{
		Filter: orgtypes.PolicyTypeServiceControlPolicy,
	})
	for policies.HasMorePages() {
		page, err := policies.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("organizations", "", err))
			break
		}
		rec.SCPCount += len(page.Policies)
	}

	accounts := organizations.NewListAccountsPaginator(client, &organizations.ListAccountsInput{})
	for accounts.HasMorePages() {
		page, err := accounts.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("organizations", "", err))
			break
		}
		rec.AccountCount += len(page.Accounts)
	}

	rec.RecordErrors = models.NewRecordErrors(errs)
	return rec
}
