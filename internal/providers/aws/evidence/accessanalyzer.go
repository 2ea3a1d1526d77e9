package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	aatypes "github.com/aws/aws-sdk-go-v2/service/accessanalyzer/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// AccessAnalyzer lists account-zone analyzers. Organization-zone analyzers
// live in the management or delegated admin account and are not listed.
func (c *DefaultCollector) AccessAnalyzer(ctx context.Context, sess *common.Session, regions []string) *models.AccessAnalyzerEvidence {
	analyzers, errs := collectRegions(ctx, c, sess, regions, func(ctx context.Context, cl *clients, region string) ([]models.AccessAnalyzer, []string) {
		var out []models.AccessAnalyzer
		pager := accessanalyzer.NewListAnalyzersPaginator(cl.AccessAnalyzer, &accessanalyzer.ListAnalyzersInput{
			Type: aatypes.TypeAccount,
		})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, []string{formatError("accessanalyzer", region, err)}
			}
			for _, a := range page.Analyzers {
				out = append(out, models.AccessAnalyzer{
					Name:   aws.ToString(a.Name),
					Region: region,
					Status: string(a.Status),
					Type:   string(a.Type),
				})
			}
		}
		return out, nil
	})

	return &models.AccessAnalyzerEvidence{
		AnalyzerCount: len(analyzers),
		ActiveAnalyzerCount: countIf(analyzers, func(a models.AccessAnalyzer) bool {
			return a.Status == string(aatypes.AnalyzerStatusActive)
		}),
		Analyzers:    nonNilSlice(analyzers),
		RecordErrors: models.NewRecordErrors(errs),
	}
}
