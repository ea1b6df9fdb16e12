package s3fetch

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves whole objects from memory. It ignores Range headers, which is
// enough for the download manager as long as objects are smaller than one part.
type fakeS3 struct {
	objects map[string][]byte
	calls   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestDefaultDownloaderConfig(t *testing.T) {
	cfg := DefaultDownloaderConfig()

	if cfg.Concurrency < 4 {
		t.Errorf("Concurrency = %d, want >= 4", cfg.Concurrency)
	}
	if cfg.Concurrency > 16 {
		t.Errorf("Concurrency = %d, want <= 16", cfg.Concurrency)
	}
	if cfg.PartSize != 16*1024*1024 {
		t.Errorf("PartSize = %d, want 16MB", cfg.PartSize)
	}
}

func TestDownloaderConfig_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DownloaderConfig
		wantConc int
		wantPart int64
	}{
		{
			name:     "all zero",
			cfg:      DownloaderConfig{},
			wantConc: DefaultDownloaderConfig().Concurrency,
			wantPart: DefaultDownloaderConfig().PartSize,
		},
		{
			name:     "custom concurrency",
			cfg:      DownloaderConfig{Concurrency: 8},
			wantConc: 8,
			wantPart: DefaultDownloaderConfig().PartSize,
		},
		{
			name:     "custom part size",
			cfg:      DownloaderConfig{PartSize: 32 * 1024 * 1024},
			wantConc: DefaultDownloaderConfig().Concurrency,
			wantPart: 32 * 1024 * 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDownloader(&fakeS3{}, tt.cfg).Config()
			if cfg.Concurrency != tt.wantConc {
				t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, tt.wantConc)
			}
			if cfg.PartSize != tt.wantPart {
				t.Errorf("PartSize = %d, want %d", cfg.PartSize, tt.wantPart)
			}
		})
	}
}

func TestTempFileReader(t *testing.T) {
	tmpDir := t.TempDir()
	testPath := filepath.Join(tmpDir, "test.bin")

	testData := make([]byte, 256*1024)
	if _, err := rand.Read(testData); err != nil {
		t.Fatalf("generate random data: %v", err)
	}
	if err := os.WriteFile(testPath, testData, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	f, err := os.Open(testPath)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	reader := &tempFileReader{file: f, path: testPath}

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, testData) {
		t.Error("data mismatch")
	}

	if err := reader.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(testPath); !os.IsNotExist(err) {
		t.Errorf("temp file should be removed after close, stat err = %v", err)
	}
}

func TestDownloadToReader(t *testing.T) {
	data := []byte("@HD\tVN:1.6\n")
	api := &fakeS3{objects: map[string][]byte{"bucket/reads.sam": data}}
	tmpDir := t.TempDir()
	d := NewDownloader(api, DownloaderConfig{Concurrency: 2, PartSize: 5 * 1024 * 1024, TempDir: tmpDir})

	rc, result, err := d.DownloadToReader(context.Background(), "bucket", "reads.sam")
	if err != nil {
		t.Fatalf("DownloadToReader: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content = %q, want %q", got, data)
	}
	if result.BytesDownloaded != int64(len(data)) {
		t.Errorf("BytesDownloaded = %d, want %d", result.BytesDownloaded, len(data))
	}
	if result.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", result.Concurrency)
	}

	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir should be empty after close, found %d entries", len(entries))
	}
}

func TestDownloadToReader_MissingObject(t *testing.T) {
	tmpDir := t.TempDir()
	d := NewDownloader(&fakeS3{}, DownloaderConfig{TempDir: tmpDir})

	if _, _, err := d.DownloadToReader(context.Background(), "bucket", "missing.bam"); err == nil {
		t.Fatal("expected error for missing object")
	}
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("temp file should be cleaned up on failure, found %d entries", len(entries))
	}
}

// TestDownloaderIntegration requires AWS credentials and is skipped in CI.
// To run: AWS_INTEGRATION_TEST=1 AWS_TEST_URI=s3://bucket/key go test -run TestDownloaderIntegration -v.
func TestDownloaderIntegration(t *testing.T) {
	if os.Getenv("AWS_INTEGRATION_TEST") == "" {
		t.Skip("skipping integration test; set AWS_INTEGRATION_TEST=1 to run")
	}
	uri := os.Getenv("AWS_TEST_URI")
	if uri == "" {
		t.Skip("AWS_TEST_URI required for integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, Options{Download: true})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	rc, err := client.OpenObject(ctx, uri)
	if err != nil {
		t.Fatalf("open object: %v", err)
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	t.Logf("downloaded %d bytes", n)
}
