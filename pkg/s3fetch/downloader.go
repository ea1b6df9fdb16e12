package s3fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DownloaderConfig configures the S3 Download Manager.
type DownloaderConfig struct {
	// Concurrency is the number of concurrent download parts.
	// Default: max(4, NumCPU), capped at 16.
	Concurrency int

	// PartSize is the size of each download part in bytes.
	// Default: 16MB.
	PartSize int64

	// TempDir is the directory for temporary download files.
	// If empty, os.TempDir() is used.
	TempDir string
}

// DefaultDownloaderConfig returns sensible defaults based on the current machine.
func DefaultDownloaderConfig() DownloaderConfig {
	concurrency := runtime.NumCPU()
	if concurrency < 4 {
		concurrency = 4
	}
	if concurrency > 16 {
		concurrency = 16
	}

	return DownloaderConfig{
		Concurrency: concurrency,
		PartSize:    16 * 1024 * 1024, // 16MB
	}
}

// withDefaults fills zero fields from DefaultDownloaderConfig.
func (cfg DownloaderConfig) withDefaults() DownloaderConfig {
	def := DefaultDownloaderConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = def.PartSize
	}
	return cfg
}

// Downloader wraps the AWS S3 Download Manager for high-throughput downloads.
type Downloader struct {
	manager *manager.Downloader
	config  DownloaderConfig
}

// NewDownloader creates a Downloader over an S3 API implementation.
func NewDownloader(api manager.DownloadAPIClient, cfg DownloaderConfig) *Downloader {
	cfg = cfg.withDefaults()

	mgr := manager.NewDownloader(api, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
	})

	return &Downloader{
		manager: mgr,
		config:  cfg,
	}
}

// Config returns the downloader configuration.
func (d *Downloader) Config() DownloaderConfig {
	return d.config
}

// DownloadResult contains information about a completed download.
type DownloadResult struct {
	BytesDownloaded int64
	Duration        time.Duration
	Concurrency     int
	PartSize        int64
}

// DownloadToReader downloads an S3 object and returns a reader over the
// local copy. The temp file is removed when the reader is closed.
func (d *Downloader) DownloadToReader(ctx context.Context, bucket, key string) (io.ReadCloser, *DownloadResult, error) {
	startTime := time.Now()

	tempDir := d.config.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	tempFile, err := os.CreateTemp(tempDir, "insertsize-s3-*.tmp")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}

	n, err := d.manager.Download(ctx, tempFile, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, nil, fmt.Errorf("seek temp file: %w", err)
	}

	result := &DownloadResult{
		BytesDownloaded: n,
		Duration:        time.Since(startTime),
		Concurrency:     d.config.Concurrency,
		PartSize:        d.config.PartSize,
	}

	return &tempFileReader{file: tempFile, path: tempFile.Name()}, result, nil
}

// tempFileReader wraps an os.File and deletes it on close.
type tempFileReader struct {
	file *os.File
	path string
}

func (r *tempFileReader) Read(p []byte) (n int, err error) {
	n, err = r.file.Read(p)
	if err != nil {
		if err == io.EOF {
			return n, io.EOF
		}
		return n, fmt.Errorf("read temp file: %w", err)
	}
	return n, nil
}

func (r *tempFileReader) Close() error {
	err := r.file.Close()
	os.Remove(r.path)
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
