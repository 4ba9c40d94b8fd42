// Package export writes sample and spectrum tables for plotting tools.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	parquet "github.com/parquet-go/parquet-go"

	wkb "github.com/njchilds90/gowkb"
)

// Format is the on-disk table layout.
type Format string

const (
	// FormatDAT is space-delimited text, one row per line, no header.
	FormatDAT Format = "dat"
	// FormatParquet is a Snappy-compressed parquet file with named columns.
	FormatParquet Format = "parquet"
)

// EncodeDAT writes rows as comma-separated values and then turns every comma
// into a single space. Every row must have the same arity.
func EncodeDAT(w io.Writer, rows [][]float64) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	arity := -1
	for i, row := range rows {
		if arity < 0 {
			arity = len(row)
		}
		if len(row) != arity {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), arity)
		}
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	_, err := io.WriteString(w, strings.ReplaceAll(buf.String(), ",", " "))
	return err
}

type sampleRecord struct {
	X  float64 `parquet:"x"`
	Re float64 `parquet:"re"`
	Im float64 `parquet:"im"`
}

type levelRecord struct {
	N      int64   `parquet:"n"`
	Energy float64 `parquet:"energy"`
}

func encodeParquet[T any](w io.Writer, records []T) error {
	pw := parquet.NewGenericWriter[T](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(records); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteSamples writes (x, re, im) rows to path and returns the file size.
func WriteSamples(path string, format Format, table wkb.SampleTable) (int64, error) {
	return writeFile(path, func(w io.Writer) error {
		switch format {
		case FormatDAT, "":
			return EncodeDAT(w, table.Rows())
		case FormatParquet:
			recs := make([]sampleRecord, len(table))
			for i, s := range table {
				recs[i] = sampleRecord{X: s.X, Re: s.Re, Im: s.Im}
			}
			return encodeParquet(w, recs)
		}
		return fmt.Errorf("unknown format %q", format)
	})
}

// WriteSpectrum writes (n, energy) rows to path and returns the file size.
func WriteSpectrum(path string, format Format, spec wkb.Spectrum) (int64, error) {
	return writeFile(path, func(w io.Writer) error {
		switch format {
		case FormatDAT, "":
			return EncodeDAT(w, spec.Rows())
		case FormatParquet:
			recs := make([]levelRecord, len(spec))
			for i, l := range spec {
				recs[i] = levelRecord{N: int64(l.N), Energy: l.Energy}
			}
			return encodeParquet(w, recs)
		}
		return fmt.Errorf("unknown format %q", format)
	})
}

// writeFile encodes into memory first so a failed encode leaves no partial
// file behind.
func writeFile(path string, encode func(io.Writer) error) (int64, error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return 0, &wkb.StageError{Stage: wkb.StageExport, Err: err}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, &wkb.StageError{Stage: wkb.StageExport, Err: fmt.Errorf("create %s: %w", dir, err)}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, &wkb.StageError{Stage: wkb.StageExport, Err: fmt.Errorf("write %s: %w", path, err)}
	}
	return int64(buf.Len()), nil
}
