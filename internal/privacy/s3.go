package privacy

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config holds the object storage settings for export delivery.
type S3Config struct {
	Region        string
	BaseEndpoint  string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PresignExpiry time.Duration
}

// S3Exporter uploads export packages to object storage and hands back a
// time-limited download URL.
type S3Exporter struct {
	config S3Config
}

// NewS3Exporter creates an exporter for the given storage settings.
func NewS3Exporter(config S3Config) *S3Exporter {
	if config.PresignExpiry <= 0 {
		config.PresignExpiry = 15 * time.Minute
	}
	return &S3Exporter{config: config}
}

func exportStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%s/%v", d.Year(), d.Month(), d.Day(), userID, uuid.New())
}

func (e *S3Exporter) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(e.config.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.AccessKey,
			e.config.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.BaseEndpoint)
	}), nil
}

// Deliver uploads the package body and returns a presigned GET URL for
// the user to download it.
func (e *S3Exporter) Deliver(ctx context.Context, userID string, body []byte) (string, error) {
	client, err := e.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := e.config.Bucket
	key := exportStorageKey(userID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(e.config.PresignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
