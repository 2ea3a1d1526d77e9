// Package awsevidence implements evidence.Collector against the AWS APIs.
//
// Collectors never return Go errors and never apply control logic: every API
// failure becomes a string in the record's errors list, formatted
// "<service>:<region>: <message>" or "<service>: <message>" for global
// services, so the control layer can downgrade the verdict to needs_review.
package awsevidence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/evidence"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// DefaultRegionConcurrency bounds the number of regions queried at once by a
// single collector.
const DefaultRegionConcurrency = 5

var _ evidence.Collector = (*DefaultCollector)(nil)

// DefaultCollector is the production evidence.Collector.
// Global services (Organizations, IAM, S3) are queried once through the
// partition's global region; everything else fans out across the requested
// regions and is merged in region-name order.
type DefaultCollector struct {
	factory           clientFactory
	regionConcurrency int
}

// NewDefaultCollector returns a DefaultCollector wired to production AWS SDK
// clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultClients, regionConcurrency: DefaultRegionConcurrency}
}

// NewDefaultCollectorWithFactory returns a DefaultCollector that uses the
// supplied factory, allowing tests to inject fake clients.
func NewDefaultCollectorWithFactory(f clientFactory) *DefaultCollector {
	return &DefaultCollector{factory: f, regionConcurrency: DefaultRegionConcurrency}
}

// global returns clients bound to the global-service region of sess.
func (c *DefaultCollector) global(sess *common.Session) *clients {
	return c.factory(sess.GlobalConfig())
}

// regionResult is one region's contribution to a record.
type regionResult[T any] struct {
	region string
	items  []T
	errs   []string
}

// collectRegions runs fn once per region with at most regionConcurrency calls
// in flight and merges the partial results sorted by region name, so the
// merged record does not depend on completion order.
func collectRegions[T any](
	ctx context.Context,
	c *DefaultCollector,
	sess *common.Session,
	regions []string,
	fn func(ctx context.Context, cl *clients, region string) ([]T, []string),
) ([]T, []string) {
	parts := make([]regionResult[T], len(regions))

	var g errgroup.Group
	g.SetLimit(max(c.regionConcurrency, 1))
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			items, errs := fn(ctx, c.factory(sess.ConfigForRegion(region)), region)
			parts[i] = regionResult[T]{region: region, items: items, errs: errs}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(parts, func(a, b int) bool { return parts[a].region < parts[b].region })

	var items []T
	errs := []string{}
	for _, p := range parts {
		items = append(items, p.items...)
		errs = append(errs, p.errs...)
	}
	return items, errs
}

// formatError renders err as a collection error string. API errors are
// reduced to "<code>: <message>"; transport and context errors keep their
// full text. An empty region marks a global service.
func formatError(service, region string, err error) string {
	msg := err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	if region == "" {
		return fmt.Sprintf("%s: %s", service, msg)
	}
	return fmt.Sprintf("%s:%s: %s", service, region, msg)
}

// sample returns at most limit leading items, never nil.
func sample[T any](items []T, limit int) []T {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// countIf counts the items for which pred holds.
func countIf[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// boolPtr returns a pointer to a copy of v.
func boolPtr(v bool) *bool { return aws.Bool(v) }

// nonNilSlice keeps empty lists serialised as [] rather than null.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
