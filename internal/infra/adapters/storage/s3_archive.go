package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"

	"job-search-mas/internal/config"
	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
)

var _ adapter.ResumeArchive = (*S3Archive)(nil)

const defaultPrefix = "resumes"

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores uploaded résumés in any S3-compatible bucket (R2, MinIO).
type S3Archive struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3Archive(ctx context.Context, cfg config.StorageConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: storage bucket is empty", domain.ErrInvalidArgument)
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archive(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Archive(client objectPutter, bucket, prefix string) *S3Archive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey builds "<prefix>/<user_id>/<ulid>-<filename>".
func (a *S3Archive) ObjectKey(userID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "resume"
	}
	return path.Join(a.prefix, userID, ulid.Make().String()+"-"+name)
}

func (a *S3Archive) Put(ctx context.Context, userID string, file *model.ResumeFile) (string, error) {
	if file.Empty() {
		return "", domain.ErrEmptyFile
	}
	key := a.ObjectKey(userID, file.Name)
	contentType := file.MIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentLength: aws.Int64(int64(len(file.Data))),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"user-id": userID},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
