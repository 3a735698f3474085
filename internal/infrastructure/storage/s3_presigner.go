package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/config"
)

const defaultPresignTTL = 15 * time.Minute

// S3Presigner presigns GET requests for candidate documents in S3-compatible storage.
type S3Presigner struct {
	bucket    string
	presigner *s3.PresignClient
	log       zerolog.Logger
}

// NewS3Presigner builds the presigner from FILE_S3_* settings.
func NewS3Presigner(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Presigner, error) {
	bucket := strings.TrimSpace(cfg.FileS3Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("FILE_S3_BUCKET is not set")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.FileS3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.FileS3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.FileS3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.FileS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.FileS3AccessKeyID, cfg.FileS3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.FileS3UsePathStyle
	})

	return &S3Presigner{
		bucket:    bucket,
		presigner: s3.NewPresignClient(client),
		log:       log.With().Str("component", "s3-presigner").Logger(),
	}, nil
}

// PresignGet implements Presigner.
func (p *S3Presigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("presign document")
		return "", err
	}
	return req.URL, nil
}
