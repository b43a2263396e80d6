package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Provider stores documents in an S3 bucket. Credentials come from the
// default AWS chain; Endpoint supports S3-compatible services.
type S3Provider struct {
	client *s3.S3
	bucket string
}

type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

func NewS3(cfg S3Config) (*S3Provider, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return &S3Provider{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

func (p *S3Provider) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, aws.StringValue(p.client.Config.Region), key), nil
}
