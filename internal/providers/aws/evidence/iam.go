package awsevidence

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// IAM reads account-level access settings.
//
// AccountMFAEnabled in the account summary is 1 when virtual or hardware MFA
// is enabled on root. A NoSuchEntity answer from GetAccountPasswordPolicy
// means no policy is configured and is not a collection error.
func (c *DefaultCollector) IAM(ctx context.Context, sess *common.Session) *models.IAMEvidence {
	client := c.global(sess).IAM
	var errs []string
	rec := &models.IAMEvidence{}

	summary, err := client.GetAccountSummary(ctx, &iam.GetAccountSummaryInput{})
	if err != nil {
		errs = append(errs, formatError("iam", "", err))
	} else {
		rec.RootMFAEnabled = summary.SummaryMap["AccountMFAEnabled"] == 1
	}

	_, err = client.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{})
	var noSuchEntity *iamtypes.NoSuchEntityException
	switch {
	case err == nil:
		rec.PasswordPolicyPresent = true
	case errors.As(err, &noSuchEntity):
		rec.PasswordPolicyPresent = false
	default:
		errs = append(errs, formatError("iam", "", err))
	}

	users := iam.NewListUsersPaginator(client, &iam.ListUsersInput{})
	for users.HasMorePages() {
		page, err := users.NextPage(ctx)
		if err != nil {
			errs = append(errs, formatError("iam", "", err))
			break
		}
		rec.UserCount += len(page.Users)
	}

	rec.RecordErrors = models.NewRecordErrors(errs)
	return rec
}
