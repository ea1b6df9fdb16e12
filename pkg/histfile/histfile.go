// Package histfile exports per-orientation insert size histograms.
//
// The output format follows the file extension: .parquet, .sqlite/.sqlite3/.db,
// or tab-separated text for anything else. Files are written next to the
// destination with a .tmp suffix and renamed into place once complete.
package histfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/fileutil"
	"github.com/eunmann/insertsize/pkg/insertsize"
	"github.com/eunmann/insertsize/pkg/logging"
	"github.com/eunmann/insertsize/pkg/orient"
)

// Row is one histogram bin.
type Row struct {
	Orientation string `parquet:"orientation,dict"`
	InsertSize  int64  `parquet:"insert_size"`
	Count       int64  `parquet:"count"`
}

// Format is an export encoding.
type Format string

// Export formats.
const (
	FormatParquet Format = "parquet"
	FormatSQLite  Format = "sqlite"
	FormatTSV     Format = "tsv"
)

// FormatFor picks the export format from the path extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	case ".sqlite", ".sqlite3", ".db":
		return FormatSQLite
	default:
		return FormatTSV
	}
}

// Rows flattens the histograms of s in category order, then ascending size.
func Rows(s *insertsize.State) []Row {
	var rows []Row
	for _, c := range orient.All {
		h := s.Histogram(c)
		for _, size := range h.Sizes() {
			rows = append(rows, Row{
				Orientation: c.String(),
				InsertSize:  int64(size),
				Count:       int64(h[size]),
			})
		}
	}
	return rows
}

// Write exports the histograms of s to path and returns the number of rows.
func Write(ctx context.Context, path string, s *insertsize.State) (int, error) {
	start := time.Now()
	rows := Rows(s)
	format := FormatFor(path)
	replaced := fileutil.Exists(path)

	err := fileutil.WriteTmpThenMove(path, func(tmpPath string) error {
		switch format {
		case FormatParquet:
			return writeParquet(tmpPath, rows)
		case FormatSQLite:
			return writeSQLite(ctx, tmpPath, rows)
		default:
			return writeTSV(tmpPath, rows)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("write %s histogram %s: %w", format, path, err)
	}

	logging.FileCreated(logctx.FromContext(ctx), "export", time.Since(start)).
		Str("path", path).
		Str("format", string(format)).
		Int("rows", len(rows)).
		Bool("replaced", replaced).
		Log("histogram written")
	return len(rows), nil
}
