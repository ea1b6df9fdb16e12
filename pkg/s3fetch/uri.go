// Package s3fetch opens alignment objects stored in S3.
//
// Objects are either streamed with a single GetObject call or, for large
// BAM files, fetched with the multipart download manager into a temp file
// that is removed when the reader is closed.
package s3fetch

import (
	"errors"
	"fmt"
	"strings"
)

// URIScheme prefixes every S3 object location.
const URIScheme = "s3://"

// ParseS3URI parses an S3 URI (s3://bucket/key) into bucket and key components.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, URIScheme) {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, URIScheme)
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}

	return bucket, key, nil
}

// ParseObjectURI is ParseS3URI for locations that must name an object.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	bucket, key, err = ParseS3URI(uri)
	if err != nil {
		return "", "", err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid S3 URI %q: missing object key", uri)
	}
	return bucket, key, nil
}
