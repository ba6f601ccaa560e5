package config

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the S3 client and target bucket for image storage.
type S3Config struct {
	Client     *s3.Client
	BucketName string
}

// NewS3Config initializes the S3 client from the default AWS credential
// chain. Returns nil (no error) when no bucket is configured: image
// upload is then disabled.
func NewS3Config(ctx context.Context, cfg StorageConfig) (*S3Config, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: cfg.S3Bucket,
	}, nil
}
