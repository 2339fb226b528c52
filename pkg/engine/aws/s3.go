package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// S3Client is the subset of the S3 API the archaeologist calls.
type S3Client interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// SizeEstimator is the pluggable strategy for approximating bucket size.
// Exact byte accounting needs a listing call per bucket, which a budgeted
// scan may want to skip.
type SizeEstimator interface {
	// EstimateBytes returns the approximate bucket size and whether an
	// estimate was actually produced.
	EstimateBytes(ctx context.Context, client S3Client, bucket string) (int64, bool, error)
}

// ListObjectsEstimator sums object sizes from up to MaxPages listing pages.
// Buckets larger than MaxPages × 1000 objects are under-estimated.
type ListObjectsEstimator struct {
	MaxPages int
}

func (e *ListObjectsEstimator) EstimateBytes(ctx context.Context, client S3Client, bucket string) (int64, bool, error) {
	pages := e.MaxPages
	if pages < 1 {
		pages = 1
	}

	var total int64
	var token *string
	for i := 0; i < pages; i++ {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &bucket,
			ContinuationToken: token,
		})
		if err != nil {
			return 0, false, err
		}
		for _, obj := range out.Contents {
			if obj.Size != nil {
				total += *obj.Size
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return total, true, nil
}

// SkipEstimator disables sizing; buckets are listed with unknown size.
type SkipEstimator struct{}

func (SkipEstimator) EstimateBytes(context.Context, S3Client, string) (int64, bool, error) {
	return 0, false, nil
}

// bucketStub is the region-resolved bucket listing cached for the run.
type bucketStub struct {
	name    string
	created time.Time
}

// ListBuckets returns raw object-store records homed in the requested
// region. The bucket namespace is global, so the account listing runs once
// per scan and is partitioned by resolved region; per-bucket metadata and
// sizing run against the regional endpoint here, inside the region's unit
// of work.
func (a *LiveAPI) ListBuckets(ctx context.Context, region string) ([]inventory.RawBucket, error) {
	a.bucketsOnce.Do(func() { a.bucketsErr = a.resolveBuckets(ctx) })
	if a.bucketsErr != nil {
		return nil, wrap(a.bucketsErr, region, inventory.FamilyObjectStore)
	}

	a.mu.Lock()
	stubs := a.buckets[region]
	a.mu.Unlock()

	client := a.s3Regional(region)

	var raws []inventory.RawBucket
	for _, stub := range stubs {
		raw := inventory.RawBucket{
			Name:      stub.name,
			Region:    region,
			CreatedAt: stub.created,
		}

		size, known, err := a.Sizer.EstimateBytes(ctx, client, stub.name)
		if err != nil {
			// A bucket we cannot list still belongs in the inventory.
			a.logger.Warn("Bucket size estimation failed", "bucket", stub.name, "error", err)
		} else {
			raw.SizeBytes = size
			raw.SizeKnown = known
		}

		if v, err := client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: &stub.name}); err == nil {
			raw.Versioning = v.Status == s3types.BucketVersioningStatusEnabled
		}
		if _, err := client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: &stub.name}); err == nil {
			raw.Encrypted = true
		}

		raws = append(raws, raw)
	}
	return raws, nil
}

// resolveBuckets lists the account's buckets and partitions them by home
// region.
func (a *LiveAPI) resolveBuckets(ctx context.Context) error {
	client := a.s3Regional("")
	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return err
	}

	buckets := make(map[string][]bucketStub)
	for _, b := range out.Buckets {
		if b.Name == nil {
			continue
		}
		name := *b.Name

		region := "us-east-1"
		loc, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: &name})
		if err != nil {
			a.logger.Warn("Could not resolve bucket region", "bucket", name, "error", err)
			continue
		}
		if loc.LocationConstraint != "" {
			region = string(loc.LocationConstraint)
			// Legacy location constraint.
			if region == "EU" {
				region = "eu-west-1"
			}
		}

		stub := bucketStub{name: name}
		if b.CreationDate != nil {
			stub.created = *b.CreationDate
		}
		buckets[region] = append(buckets[region], stub)
	}

	a.mu.Lock()
	a.buckets = buckets
	a.mu.Unlock()
	return nil
}
