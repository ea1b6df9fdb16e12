package alignment

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	// BGZF is gzip with the FEXTRA flag set.
	bgzfMagic = []byte{0x1f, 0x8b, 0x08, 0x04}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	// bamMagic opens the decompressed BAM stream.
	bamMagic = []byte("BAM\x01")
)

// bamReader decodes BAM records, skipping the variable-length fields.
type bamReader struct {
	br      *bam.Reader
	closers []io.Closer
}

// NewBAMReader creates a Reader over BAM data.
func NewBAMReader(r io.Reader) (Reader, error) {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("open bam stream: %w", err)
	}
	br.Omit(bam.AllVariableLengthData)
	return &bamReader{br: br}, nil
}

func (r *bamReader) Next() (Record, error) {
	rec, err := r.br.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read bam record: %w", err)
	}
	return FromSAM(rec), nil
}

func (r *bamReader) Close() error {
	err := r.br.Close()
	if cerr := closeAll(r.closers); err == nil {
		err = cerr
	}
	return err
}

// samReader decodes SAM text records.
type samReader struct {
	sr      *sam.Reader
	closers []io.Closer
}

// NewSAMReader creates a Reader over uncompressed SAM text.
func NewSAMReader(r io.Reader) (Reader, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open sam stream: %w", err)
	}
	return &samReader{sr: sr}, nil
}

func (r *samReader) Next() (Record, error) {
	rec, err := r.sr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read sam record: %w", err)
	}
	return FromSAM(rec), nil
}

func (r *samReader) Close() error {
	return closeAll(r.closers)
}

// NewReaderFromStream creates a Reader from a raw stream. The name only guides
// format detection; Close closes rc.
func NewReaderFromStream(rc io.ReadCloser, name string, format Format) (Reader, error) {
	buffered := bufio.NewReaderSize(rc, 64*1024)
	head, err := buffered.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		rc.Close()
		return nil, fmt.Errorf("peek %s: %w", name, err)
	}

	if format == FormatAuto {
		if bytes.HasPrefix(head, bgzfMagic) {
			// A BGZF block is at most 64 KiB, so the first one fits in the buffer.
			head, _ = buffered.Peek(buffered.Size())
		}
		format = detectFormat(name, head)
	}

	switch format {
	case FormatBAM:
		r, err := NewBAMReader(buffered)
		if err != nil {
			rc.Close()
			return nil, err
		}
		br := r.(*bamReader)
		br.closers = []io.Closer{rc}
		return br, nil
	case FormatSAM:
		return newSAMFromBuffered(buffered, head, rc)
	default:
		rc.Close()
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}

// newSAMFromBuffered unwraps gzip or zstd compression by magic number.
func newSAMFromBuffered(buffered *bufio.Reader, head []byte, rc io.ReadCloser) (Reader, error) {
	var text io.Reader = buffered
	closers := []io.Closer{rc}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(buffered)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		closers = append(closers, gzr)
		text = gzr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		zrc := zr.IOReadCloser()
		closers = append(closers, zrc)
		text = zrc
	}

	r, err := NewSAMReader(text)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	sr := r.(*samReader)
	sr.closers = closers
	return sr, nil
}

// closeAll closes in reverse order and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
