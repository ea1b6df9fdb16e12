package s3fetch

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/logging"
)

// GetObjectAPI is the subset of the S3 API the client needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options controls how objects are fetched.
type Options struct {
	// Region overrides the region from the default AWS configuration.
	Region string

	// Download fetches objects with the multipart download manager into a
	// temp file instead of streaming a single GetObject body.
	Download bool

	// Downloader configures the download manager when Download is set.
	Downloader DownloaderConfig
}

// Client opens S3 objects for reading.
type Client struct {
	api        GetObjectAPI
	downloader *Downloader
}

// NewClient creates a new S3 client using default AWS configuration.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewClientWithAPI(s3.NewFromConfig(cfg), opts), nil
}

// NewClientWithAPI creates a client over an existing S3 API implementation.
func NewClientWithAPI(api GetObjectAPI, opts Options) *Client {
	c := &Client{api: api}
	if opts.Download {
		c.downloader = NewDownloader(api, opts.Downloader)
	}
	return c
}

// StreamObject returns a reader for an S3 object.
func (c *Client) StreamObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// OpenObject opens the object at an s3://bucket/key URI, downloading it
// first when the client was built with Options.Download.
func (c *Client) OpenObject(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return nil, err
	}

	log := logctx.FromContext(ctx)
	if c.downloader == nil {
		log.Debug().Str("bucket", bucket).Str("key", key).Msg("streaming S3 object")
		return c.StreamObject(ctx, bucket, key)
	}

	rc, result, err := c.downloader.DownloadToReader(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	logging.PhaseComplete(log, "download", result.Duration).
		Str("bucket", bucket).
		Str("key", key).
		Count("bytes", result.BytesDownloaded).
		Rate("bytes", result.BytesDownloaded).
		Int("concurrency", result.Concurrency).
		LogDebug("S3 object downloaded")
	return rc, nil
}
