package flash

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cloupeer.io/cpeer-flash/pkg/log"
	"cloupeer.io/cpeer-flash/pkg/options"
)

// ErrObjectNotFound is returned by a Fetcher when the store has no object
// for the artifact.
var ErrObjectNotFound = errors.New("object not found in artifact store")

// Fetcher downloads a prebuilt artifact to its resolved path.
type Fetcher interface {
	Fetch(ctx context.Context, artifact Artifact) error
}

// S3Fetcher pulls artifacts from an S3-compatible bucket.
type S3Fetcher struct {
	client      *minio.Client
	bucketName  string
	keyTemplate string
	logger      log.Logger
}

var _ Fetcher = (*S3Fetcher)(nil)

func NewS3Fetcher(opts *options.S3Options, logger log.Logger) (*S3Fetcher, error) {
	if logger == nil {
		logger = log.Std()
	}

	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Fetcher{
		client:      client,
		bucketName:  opts.BucketName,
		keyTemplate: opts.ObjectTemplate,
		logger:      logger.WithName("s3"),
	}, nil
}

// ObjectKey returns the object key for artifact.
func (f *S3Fetcher) ObjectKey(artifact Artifact) string {
	return artifact.Expand(f.keyTemplate)
}

func (f *S3Fetcher) Fetch(ctx context.Context, artifact Artifact) error {
	key := f.ObjectKey(artifact)
	f.logger.Info("Fetching artifact from store", "bucket", f.bucketName, "key", key, "path", artifact.Path)

	err := f.client.FGetObject(ctx, f.bucketName, key, artifact.Path, minio.GetObjectOptions{})
	if err == nil {
		return nil
	}

	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, f.bucketName, key)
	}
	return fmt.Errorf("failed to fetch %s/%s: %w", f.bucketName, key, err)
}
