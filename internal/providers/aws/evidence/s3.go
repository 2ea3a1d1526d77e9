package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// S3 lists every bucket in the account and checks each bucket's public-access
// status (GetBucketPolicyStatus) and whether default server-side encryption
// is configured (GetBucketEncryption). S3 is global; only ListBuckets
// failures are recorded as errors.
func (c *DefaultCollector) S3(ctx context.Context, sess *common.Session) *models.S3Evidence {
	client := c.global(sess).S3

	out, err := client.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return &models.S3Evidence{
			BucketsSample: []models.S3Bucket{},
			RecordErrors:  models.NewRecordErrors([]string{formatError("s3", "", err)}),
		}
	}

	buckets := make([]models.S3Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		buckets = append(buckets, models.S3Bucket{
			Name:                     name,
			Public:                   isBucketPublic(ctx, client, name),
			DefaultEncryptionEnabled: isBucketEncryptionEnabled(ctx, client, name),
		})
	}

	return &models.S3Evidence{
		BucketCount:            len(buckets),
		PublicBucketCount:      countIf(buckets, func(b models.S3Bucket) bool { return b.Public }),
		UnencryptedBucketCount: countIf(buckets, func(b models.S3Bucket) bool { return !b.DefaultEncryptionEnabled }),
		BucketsSample:          sample(buckets, models.SampleLimit),
		RecordErrors:           models.NewRecordErrors(nil),
	}
}

// isBucketPublic returns true only when GetBucketPolicyStatus reports the
// bucket's policy as public (IsPublic == true). Buckets without a bucket
// policy return a NoSuchBucketPolicy error, which is treated as not public.
// All other errors are also treated as not public to avoid false positives.
func isBucketPublic(ctx context.Context, client s3APIClient, name string) bool {
	out, err := client.GetBucketPolicyStatus(ctx, &s3svc.GetBucketPolicyStatusInput{
		Bucket: aws.String(name),
	})
	if err != nil || out.PolicyStatus == nil {
		return false
	}
	return aws.ToBool(out.PolicyStatus.IsPublic)
}

// isBucketEncryptionEnabled returns true when GetBucketEncryption returns a
// server-side encryption configuration for the bucket. A missing
// configuration or any other error counts as not configured.
func isBucketEncryptionEnabled(ctx context.Context, client s3APIClient, name string) bool {
	_, err := client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{
		Bucket: aws.String(name),
	})
	return err == nil
}
