package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	waftypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// WAF lists regional web ACLs. CloudFront-scoped ACLs are not collected.
func (c *DefaultCollector) WAF(ctx context.Context, sess *common.Session, regions []string) *models.WAFEvidence {
	acls, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.WebACL, []string) {
		var out []models.WebACL
		input := &wafv2.ListWebACLsInput{Scope: waftypes.ScopeRegional}
		for {
			page, err := cl.WAF.ListWebACLs(ctx, input)
			if err != nil {
				return nil, []string{formatError("wafv2", region, err)}
			}
			for _, acl := range page.WebACLs {
				out = append(out, models.WebACL{
					Name:   aws.ToString(acl.Name),
					ID:     aws.ToString(acl.Id),
					Region: region,
				})
			}
			// WAF keeps returning a marker on the last page; an empty page ends it.
			if aws.ToString(page.NextMarker) == "" || len(page.WebACLs) == 0 {
				return out, nil
			}
			input.NextMarker = page.NextMarker
		}
	})

	return &models.WAFEvidence{
		WebACLCount:   len(acls),
		WebACLsSample: sample(acls, models.SampleLimit),
		RecordErrors:  models.NewRecordErrors(errs),
	}
}
