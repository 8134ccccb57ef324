package response

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/go-redis/redis/v8"

	"github.com/imposter-project/imposter-http/internal/config"
	"github.com/imposter-project/imposter-http/pkg/logger"
	"github.com/imposter-project/imposter-http/pkg/utils"
)

var (
	ErrFileNotFound   = errors.New("response file not found")
	ErrInvalidFileRef = errors.New("invalid response file reference")
)

const (
	s3Scheme    = "s3://"
	redisScheme = "redis://"
)

// FileReader loads the bytes behind a file body reference
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// LocalFileReader reads files relative to a root directory
type LocalFileReader struct {
	RootDir string
}

func (r *LocalFileReader) ReadFile(path string) ([]byte, error) {
	filePath, err := utils.ValidatePath(path, r.RootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileRef, err)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Errorf("response file not found: %s", filePath)
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading response file %s: %w", filePath, err)
	}
	return data, nil
}

// S3FileReader reads objects from a bucket. References take the form
// s3://key, or s3://bucket/key when Bucket is empty.
type S3FileReader struct {
	Client s3iface.S3API
	Bucket string
}

func NewS3FileReader(region, bucket string) *S3FileReader {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
	}))
	return &S3FileReader{Client: s3.New(sess), Bucket: bucket}
}

func (r *S3FileReader) ReadFile(path string) ([]byte, error) {
	bucket, key := r.Bucket, strings.TrimPrefix(path, s3Scheme)
	if bucket == "" {
		var found bool
		bucket, key, found = strings.Cut(key, "/")
		if !found {
			return nil, fmt.Errorf("%w: no bucket in %s", ErrInvalidFileRef, path)
		}
	}
	if key == "" {
		return nil, fmt.Errorf("%w: no key in %s", ErrInvalidFileRef, path)
	}

	result, err := r.Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			logger.Errorf("response object not found: %s/%s", bucket, key)
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("fetching s3 object %s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// RedisFileReader reads string values holding response bodies.
// References take the form redis://key.
type RedisFileReader struct {
	Client    redis.Cmdable
	KeyPrefix string
}

func NewRedisFileReader(addr, password, keyPrefix string) *RedisFileReader {
	return &RedisFileReader{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		KeyPrefix: keyPrefix,
	}
}

func (r *RedisFileReader) ReadFile(path string) ([]byte, error) {
	key := strings.TrimPrefix(path, redisScheme)
	if key == "" {
		return nil, fmt.Errorf("%w: no key in %s", ErrInvalidFileRef, path)
	}
	key = r.KeyPrefix + key

	data, err := r.Client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		logger.Errorf("response key not found: %s", key)
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("fetching redis key %s: %w", key, err)
	}
	return data, nil
}

// RoutingFileReader dispatches on the reference scheme. References
// without a known scheme go to Local.
type RoutingFileReader struct {
	Local FileReader
	S3    FileReader
	Redis FileReader
}

func (r *RoutingFileReader) ReadFile(path string) ([]byte, error) {
	var target FileReader
	switch {
	case strings.HasPrefix(path, s3Scheme):
		target = r.S3
	case strings.HasPrefix(path, redisScheme):
		target = r.Redis
	default:
		target = r.Local
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no reader configured for %s", ErrInvalidFileRef, path)
	}
	return target.ReadFile(path)
}

// NewFileReader builds the reader for the given settings. S3 and Redis
// are only available when configured.
func NewFileReader(cfg *config.ImposterConfig) FileReader {
	reader := &RoutingFileReader{
		Local: &LocalFileReader{RootDir: cfg.ConfigDir},
	}
	if cfg.S3Region != "" {
		logger.Debugf("enabling s3 response files - region:%s, bucket:%s", cfg.S3Region, cfg.S3Bucket)
		reader.S3 = NewS3FileReader(cfg.S3Region, cfg.S3Bucket)
	}
	if cfg.RedisAddr != "" {
		logger.Debugf("enabling redis response files - addr:%s", cfg.RedisAddr)
		reader.Redis = NewRedisFileReader(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKeyPrefix)
	}
	return reader
}
