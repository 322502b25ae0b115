package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ytetl/internal/config"
	"ytetl/internal/validation"
)

// objectClient is the subset of *minio.Client the sink uses.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectSink uploads reports to an S3-compatible bucket.
type ObjectSink struct {
	client objectClient
	bucket string
	prefix string

	// PutTimeout bounds one upload.
	PutTimeout time.Duration
}

// NewObjectSink connects to the configured endpoint and ensures the bucket
// exists.
func NewObjectSink(ctx context.Context, cfg config.MinIO) (*ObjectSink, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("report: minio client: %w", err)
	}
	s := &ObjectSink{client: c, bucket: cfg.Bucket, prefix: cfg.Prefix, PutTimeout: 15 * time.Second}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ObjectSink) ensureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("report: bucket exists %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("report: make bucket %s: %w", s.bucket, err)
	}
	log.Printf("report: created bucket=%s", s.bucket)
	return nil
}

// Key returns the object key for rep.
func (s *ObjectSink) Key(rep *validation.Report) string {
	if s.prefix == "" {
		return FileName(rep)
	}
	return path.Join(s.prefix, FileName(rep))
}

// Write implements Sink. It returns a "bucket/key" location.
func (s *ObjectSink) Write(ctx context.Context, rep *validation.Report) (string, error) {
	b, err := Marshal(rep)
	if err != nil {
		return "", err
	}
	if s.PutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.PutTimeout)
		defer cancel()
	}
	key := s.Key(rep)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(b), int64(len(b)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("report: put %s/%s: %w", s.bucket, key, err)
	}
	loc := s.bucket + "/" + key
	log.Printf("report: uploaded object=%s run_id=%s", loc, rep.RunID)
	return loc, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
