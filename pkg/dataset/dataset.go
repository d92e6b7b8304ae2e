// Package dataset loads row-oriented records from JSON, CSV, and XLSX.
//
// Every format yields []encoding.Record. Numeric cells become float64 and
// empty cells become nil, so CSV and spreadsheet data behave like decoded
// JSON downstream.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Format names an input format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options configures Load.
type Options struct {
	// Format overrides detection from the file extension.
	Format Format
	// Sheet selects an XLSX sheet; the first sheet is used when empty.
	Sheet string
}

// DetectFormat returns the format for path, preferring an explicit one.
func DetectFormat(path string, explicit Format) (Format, error) {
	if explicit != "" {
		return normalize(explicit)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot detect data format of %q; set a format", path)
	}
	return normalize(Format(ext))
}

func normalize(f Format) (Format, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "xlsm":
		return FormatXLSX, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported data format %q", f)
}

// Load reads and decodes the file at path.
func Load(path string, opts Options) ([]encoding.Record, error) {
	if err := errors.ValidateDataPath(path); err != nil {
		return nil, err
	}
	format, err := DetectFormat(path, opts.Format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "data file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return Decode(data, format, opts.Sheet)
}

// Decode parses data in the given format.
func Decode(data []byte, format Format, sheet string) ([]encoding.Record, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data))
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data))
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data), sheet)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported data format %q", format)
}

// ReadJSON decodes a JSON array of objects.
func ReadJSON(r io.Reader) ([]encoding.Record, error) {
	var records []encoding.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode JSON records")
	}
	return records, nil
}

// ReadCSV decodes CSV with a header row.
func ReadCSV(r io.Reader) ([]encoding.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode CSV")
	}
	return fromRows(rows)
}

// ReadXLSX decodes a sheet of an XLSX workbook with a header row.
func ReadXLSX(r io.Reader, sheet string) ([]encoding.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sheet %q", sheet)
	}
	return fromRows(rows)
}

// fromRows turns a header row plus data rows into records. Blank rows are
// skipped; short rows leave their trailing fields nil.
func fromRows(rows [][]string) ([]encoding.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "header column %d is empty", i+1)
		}
	}

	records := make([]encoding.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(encoding.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = parseCell(row[i])
			} else {
				rec[name] = nil
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCell returns nil for an empty cell, a float64 for a number, and the
// trimmed text otherwise.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
