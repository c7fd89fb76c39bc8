// Package uploads authorizes direct browser-to-bucket image transfers by
// minting short-lived presigned S3 URLs and deleting displaced objects.
package uploads

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteS3Object = func(client *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return client.DeleteObject(ctx, in)
	}
)

// S3Presigner mints presigned PUT URLs and deletes objects in one bucket.
type S3Presigner struct {
	config Config
}

// NewS3Presigner constructs a presigner for the configured bucket.
func NewS3Presigner(config Config) *S3Presigner {
	return &S3Presigner{config: config}
}

func (presigner *S3Presigner) buildClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(presigner.config.Region),
		awsconfig.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider(
			presigner.config.AccessKeyID,
			presigner.config.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("uploads.aws_config: %w", err)
	}
	return newS3ClientFromConfig(cfg, func(options *s3.Options) {
		if presigner.config.BaseEndpoint != "" {
			options.BaseEndpoint = aws.String(presigner.config.BaseEndpoint)
		}
		options.UsePathStyle = presigner.config.BaseEndpoint != ""
	}), nil
}

// PresignPut returns a single-use URL authorizing a PUT of the named object
// with the declared content type. Every call yields a fresh authorization.
func (presigner *S3Presigner) PresignPut(ctx context.Context, fileName string, fileType string) (string, error) {
	client, clientErr := presigner.buildClient(ctx)
	if clientErr != nil {
		return "", clientErr
	}
	request, presignErr := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket:      aws.String(presigner.config.Bucket),
		Key:         aws.String(fileName),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(presignExpiry))
	if presignErr != nil {
		return "", fmt.Errorf("uploads.presign_put: %w", presignErr)
	}
	return request.URL, nil
}

// DeleteObject removes the named object from the bucket.
func (presigner *S3Presigner) DeleteObject(ctx context.Context, fileName string) error {
	client, clientErr := presigner.buildClient(ctx)
	if clientErr != nil {
		return clientErr
	}
	_, deleteErr := deleteS3Object(client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(presigner.config.Bucket),
		Key:    aws.String(fileName),
	})
	if deleteErr != nil {
		return fmt.Errorf("uploads.delete_object: %w", deleteErr)
	}
	return nil
}

// PublicURL derives the browser-facing URL for a stored object by joining
// the configured public base with the percent-encoded file name.
func (presigner *S3Presigner) PublicURL(fileName string) string {
	return strings.TrimRight(presigner.config.PublicBaseURL, "/") + "/" + url.PathEscape(fileName)
}
