package awsevidence

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/providers/aws/common"
)

// KMS samples the first SampleLimit keys of each region and reads their
// manager, state and rotation status.
func (c *DefaultCollector) KMS(ctx context.Context, sess *common.Session, regions []string) *models.KMSEvidence {
	keys, errs := collectRegions(ctx, c, sess, regions, collectRegionKeys)

	isCustomer := func(k models.KMSKey) bool { return k.KeyManager == string(kmstypes.KeyManagerTypeCustomer) }
	return &models.KMSEvidence{
		SampledKeyCount:         len(keys),
		CustomerManagedKeyCount: countIf(keys, isCustomer),
		RotationEnabledCount:    countIf(keys, func(k models.KMSKey) bool { return aws.ToBool(k.RotationEnabled) }),
		CustomerManagedRotationCount: countIf(keys, func(k models.KMSKey) bool {
			return isCustomer(k) && aws.ToBool(k.RotationEnabled)
		}),
		KeysSampled:  nonNilSlice(keys),
		RecordErrors: models.NewRecordErrors(errs),
	}
}

func collectRegionKeys(ctx context.Context, cl *clients, region string) ([]models.KMSKey, []string) {
	list, err := cl.KMS.ListKeys(ctx, &kms.ListKeysInput{Limit: aws.Int32(models.SampleLimit)})
	if err != nil {
		return nil, []string{formatError("kms", region, err)}
	}

	var errs []string
	keys := make([]models.KMSKey, 0, len(list.Keys))
	for _, entry := range list.Keys {
		key := models.KMSKey{KeyID: aws.ToString(entry.KeyId), Region: region}

		meta, err := cl.KMS.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: entry.KeyId})
		if err != nil {
			errs = append(errs, formatError("kms", region, err))
		} else if meta.KeyMetadata != nil {
			key.KeyManager = string(meta.KeyMetadata.KeyManager)
			key.KeyState = string(meta.KeyMetadata.KeyState)
		}

		rotation, err := cl.KMS.GetKeyRotationStatus(ctx, &kms.GetKeyRotationStatusInput{KeyId: entry.KeyId})
		if err != nil {
			errs = append(errs, formatError("kms", region, err))
		} else {
			key.RotationEnabled = boolPtr(rotation.KeyRotationEnabled)
		}

		keys = append(keys, key)
	}
	return keys, errs
}
