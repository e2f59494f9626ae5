package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/filex"
	"github.com/google/uuid"
)

// S3Config selects the bucket and credentials for S3Sink. Endpoint is
// optional and enables path-style addressing for MinIO and similar.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads handles as objects under downloads/<date>/<uuid>/<name>.
type S3Sink struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Sink builds an S3 client from cfg.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 sink: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Sink(client, cfg.Bucket), nil
}

func newS3Sink(client objectPutter, bucket string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, now: time.Now}
}

func (s *S3Sink) objectKey(filename string) string {
	d := s.now().UTC()
	return path.Join("downloads", d.Format("2006/01/02"), uuid.NewString(), filex.SafeName(filename))
}

func (s *S3Sink) Save(ctx context.Context, h *resource.Handle) (string, error) {
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		return "", err
	}

	key := s.objectKey(h.Filename())
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
	}
	if ct := h.ContentType(); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
