package alignment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Format selects the input decoder.
type Format string

// Supported input formats.
const (
	FormatAuto Format = "auto"
	FormatBAM  Format = "bam"
	FormatSAM  Format = "sam"
)

// ParseFormat validates a format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatBAM, FormatSAM:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q: must be auto, bam, or sam", s)
	}
}

// StdinName is the input name that reads from standard input.
const StdinName = "-"

// ObjectOpener opens remote objects addressed by URI (e.g. s3://bucket/key).
type ObjectOpener interface {
	OpenObject(ctx context.Context, uri string) (io.ReadCloser, error)
}

// OpenOptions configures Open.
type OpenOptions struct {
	Format Format
	// Remote handles s3:// inputs. Nil rejects remote inputs.
	Remote ObjectOpener
	// Stdin overrides os.Stdin for the "-" input.
	Stdin io.Reader
}

// IsRemote reports whether input names a remote object.
func IsRemote(input string) bool {
	return strings.HasPrefix(input, "s3://")
}

// Open opens input (a local path, "-" for stdin, or an s3:// URI) as a Reader.
func Open(ctx context.Context, input string, opts OpenOptions) (Reader, error) {
	format := opts.Format
	if format == "" {
		format = FormatAuto
	}

	var rc io.ReadCloser
	switch {
	case input == StdinName:
		var in io.Reader = os.Stdin
		if opts.Stdin != nil {
			in = opts.Stdin
		}
		rc = io.NopCloser(in)
	case IsRemote(input):
		if opts.Remote == nil {
			return nil, fmt.Errorf("open %s: remote inputs are not configured", input)
		}
		obj, err := opts.Remote.OpenObject(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", input, err)
		}
		rc = obj
	default:
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		rc = f
	}

	return NewReaderFromStream(rc, input, format)
}

// detectFormat picks BAM or SAM from the name, falling back to the content.
// bgzip output of a SAM file is BGZF too, so a BGZF stream is taken as BAM
// only when its first block decompresses to the BAM magic. head should hold
// the whole first block.
func detectFormat(name string, head []byte) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".bam"):
		return FormatBAM
	case strings.HasSuffix(lower, ".sam"),
		strings.HasSuffix(lower, ".sam.gz"),
		strings.HasSuffix(lower, ".sam.zst"):
		return FormatSAM
	}
	if bytes.HasPrefix(head, bgzfMagic) && !bgzfHoldsText(head) {
		return FormatBAM
	}
	return FormatSAM
}

// bgzfHoldsText reports whether the BGZF data in head starts with something
// other than the BAM magic. Undecodable data is left to the BAM decoder.
func bgzfHoldsText(head []byte) bool {
	zr, err := gzip.NewReader(bytes.NewReader(head))
	if err != nil {
		return false
	}
	defer zr.Close()
	magic := make([]byte, len(bamMagic))
	if _, err := io.ReadFull(zr, magic); err != nil {
		return false
	}
	return !bytes.Equal(magic, bamMagic)
}
