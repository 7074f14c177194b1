// Package report writes ranked tables and builds the run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/movierank/internal/movie"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteOptions configures file output.
type WriteOptions struct {
	// BOM prefixes the file with a UTF-8 byte order mark.
	BOM bool
}

// WriteRanked writes the full ranked table to path, creating the parent
// directory if needed. An empty table yields a header-only file.
func WriteRanked(path string, rows []movie.Ranked, opts WriteOptions) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = RankedRecord(r)
	}
	return WriteTable(path, movie.OutputColumns, records, opts)
}

// RankedRecord renders one ranked row in movie.OutputColumns order.
// Null values become empty cells.
func RankedRecord(r movie.Ranked) []string {
	return []string{
		strconv.FormatInt(r.TMDBID, 10),
		r.Title,
		nullFloat(r.Popularity.V, r.Popularity.Valid),
		nullFloat(r.Revenue.V, r.Revenue.Valid),
		nullInt(r.Year.V, r.Year.Valid),
		nullFloat(r.Rating.V, r.Rating.Valid),
		formatFloat(r.LogRevenue),
		formatFloat(r.RatingNorm),
		formatFloat(r.RevenueNorm),
		formatFloat(r.PopularityNorm),
		formatFloat(r.PC[0]),
		formatFloat(r.PC[1]),
		formatFloat(r.PC[2]),
		formatFloat(r.PerformanceIndex),
	}
}

// WriteTable writes a header and records as CSV to path.
func WriteTable(path string, header []string, records [][]string, opts WriteOptions) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // output path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := Encode(f, header, records, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Encode writes header and records as CSV to w.
func Encode(w io.Writer, header []string, records [][]string, opts WriteOptions) error {
	out := w
	var bom io.WriteCloser
	if opts.BOM {
		bom = transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		out = bom
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}

	if bom != nil {
		return bom.Close()
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nullFloat(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return formatFloat(v)
}

func nullInt(v int64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
