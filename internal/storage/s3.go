package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"go-garage/internal/core/config"
	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3 对象存储（AWS S3 / MinIO），PublicID 即对象 key
type S3 struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
}

func NewS3(ctx context.Context, c config.S3) (*S3, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("s3 storage: empty bucket")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = c.PathStyle
	})
	return &S3{
		client:  client,
		bucket:  c.Bucket,
		prefix:  strings.Trim(c.Prefix, "/"),
		baseURL: publicBaseURL(c),
	}, nil
}

// publicBaseURL 对外访问前缀：显式配置 > 自定义 endpoint(path-style) > AWS 默认域名
func publicBaseURL(c config.S3) string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	if c.BaseEndpoint != "" {
		return strings.TrimRight(c.BaseEndpoint, "/") + "/" + c.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

var _ domain.ImageSink = (*S3)(nil)

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3) Put(ctx context.Context, up domain.Upload) (domain.CarImage, error) {
	src, err := up.Open()
	if err != nil {
		return domain.CarImage{}, fmt.Errorf("open upload %q: %w", up.Filename, err)
	}
	defer src.Close()

	// SigV4 需要可 Seek 的 body
	var body io.Reader = src
	if _, ok := src.(io.ReadSeeker); !ok {
		b, err := io.ReadAll(src)
		if err != nil {
			return domain.CarImage{}, err
		}
		body = bytes.NewReader(b)
	}

	key := s.key(utils.NewID() + safeExt(up.Filename))
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if up.ContentType != "" {
		in.ContentType = aws.String(up.ContentType)
	}
	if up.Size > 0 {
		in.ContentLength = aws.Int64(up.Size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return domain.CarImage{}, fmt.Errorf("s3 put %q: %w", key, err)
	}
	return domain.CarImage{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *S3) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %q: %w", publicID, err)
	}
	return nil
}
