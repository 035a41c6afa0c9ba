package keystore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/cryptox"
)

// S3Options configure the object-storage backend (MinIO-compatible).
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	ObjectKey    string
}

// S3KeyStore keeps the key bytes in a single S3 object. Meant for
// deployments without a persistent local disk.
type S3KeyStore struct {
	opts   S3Options
	client *s3.Client
}

func NewS3KeyStore(ctx context.Context, opts S3Options) (*S3KeyStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3KeyStore{opts: opts, client: client}, nil
}

func (s *S3KeyStore) LoadOrCreate(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.opts.ObjectKey),
	})

	if err == nil {
		defer out.Body.Close()
		key, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("read key object: %w", err)
		}
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("key object has size %d, want %d", len(key), cryptox.KeySize)
		}
		return key, nil
	}

	var noKey *types.NoSuchKey
	if !errors.As(err, &noKey) {
		return nil, fmt.Errorf("get key object: %w", err)
	}

	key := common.GenerateRandByteArray(cryptox.KeySize)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.opts.ObjectKey),
		Body:   bytes.NewReader(key),
	})
	if err != nil {
		return nil, fmt.Errorf("persist key object: %w", err)
	}

	return key, nil
}
