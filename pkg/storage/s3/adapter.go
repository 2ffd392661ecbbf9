// Package s3 provides an S3 implementation of the storage provider.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/iamharada/stepwise-system/pkg/storage"
)

// listPageSize is the page size requested from ListObjectsV2 (the S3 maximum).
const listPageSize = 1000

// Config holds S3 adapter configuration.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Client defines the S3 operations used by the adapter.
// *s3.Client satisfies it; tests supply a fake.
type Client interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// Adapter implements storage.Provider using S3.
type Adapter struct {
	cfg    Config
	client Client
}

// New creates a new S3 adapter with an existing client.
func New(cfg Config, client Client) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
	}, nil
}

// NewFromConfig creates a new S3 adapter with a client built from config.
// Static credentials are used when both key fields are set; otherwise the
// default AWS credential chain applies.
func NewFromConfig(ctx context.Context, cfg Config) (*Adapter, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return New(cfg, client)
}

// Name returns the provider name.
func (*Adapter) Name() string {
	return "s3"
}

// Put uploads data under key.
func (a *Adapter) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting object %s: %w", key, err)
	}
	return nil
}

// List walks every ListObjectsV2 page under prefix.
func (a *Adapter) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	paginator := awss3.NewListObjectsV2Paginator(a.client, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(a.cfg.Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(listPageSize),
	})

	objects := make([]storage.ObjectInfo, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, storage.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// Get downloads a single object.
func (a *Adapter) Get(ctx context.Context, key string) (*storage.Object, error) {
	out, err := a.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("getting object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}

	return &storage.Object{
		ObjectInfo: storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: aws.ToTime(out.LastModified),
		},
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
	}, nil
}

// Ping checks that the bucket exists and is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(a.cfg.Bucket)}); err != nil {
		return fmt.Errorf("checking bucket %s: %w", a.cfg.Bucket, err)
	}
	return nil
}

// Close releases resources. The SDK client holds none that need closing.
func (*Adapter) Close() error {
	return nil
}

// Verify interface compliance.
var (
	_ storage.Provider = (*Adapter)(nil)
	_ storage.Pinger   = (*Adapter)(nil)
)
