package s3fetch

import "testing"

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			uri:        "s3://my-bucket/runs/sample1.bam",
			wantBucket: "my-bucket",
			wantKey:    "runs/sample1.bam",
		},
		{
			uri:        "s3://bucket/key",
			wantBucket: "bucket",
			wantKey:    "key",
		},
		{
			uri:        "s3://bucket-only/",
			wantBucket: "bucket-only",
			wantKey:    "",
		},
		{
			uri:        "s3://bucket",
			wantBucket: "bucket",
			wantKey:    "",
		},
		{
			uri:     "https://bucket/key",
			wantErr: true,
		},
		{
			uri:     "/local/path.bam",
			wantErr: true,
		},
		{
			uri:     "s3://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestParseObjectURI(t *testing.T) {
	if _, _, err := ParseObjectURI("s3://bucket/dir/"); err == nil {
		t.Error("expected error for prefix-only URI")
	}
	if _, _, err := ParseObjectURI("s3://bucket"); err == nil {
		t.Error("expected error for bucket-only URI")
	}
	bucket, key, err := ParseObjectURI("s3://bucket/a/b.sam.gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "bucket" || key != "a/b.sam.gz" {
		t.Errorf("got %q %q", bucket, key)
	}
}
