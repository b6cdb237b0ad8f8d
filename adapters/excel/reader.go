package excel

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"patientcluster/domain/dataset"
	"patientcluster/internal/errors"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// FileType identifies the upload format
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// DetectFileType picks the reader from the file extension. Anything that
// is not a workbook is read as delimited text.
func DetectFileType(filename string) FileType {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return FileTypeXLSX
	}
	return FileTypeCSV
}

// ReadTable parses an uploaded file into a table. Every failure is a
// DataLoadError.
func ReadTable(filename string, r io.Reader) (*dataset.Table, error) {
	switch DetectFileType(filename) {
	case FileTypeXLSX:
		return readWorkbook(filename, r)
	default:
		return readCSV(filename, r)
	}
}

// readCSV reads comma-delimited text, header first
func readCSV(filename string, r io.Reader) (*dataset.Table, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		_, _ = buffered.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataLoadError("failed to parse CSV file", err)
	}
	if len(records) == 0 {
		return nil, errors.DataLoadError("CSV file is empty", nil)
	}

	table, err := dataset.NewTable(filename, normalizeHeaders(records[0]), records[1:])
	if err != nil {
		return nil, errors.DataLoadError("malformed CSV file", err)
	}
	if table.NumRows() == 0 {
		return nil, errors.DataLoadError("CSV file must have at least a header row and one data row", nil)
	}
	return table, nil
}

// readWorkbook reads the first sheet of an XLSX workbook
func readWorkbook(filename string, r io.Reader) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.DataLoadError("failed to open Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataLoadError("Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.DataLoadError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	rows = dropBlankRows(rows)
	if len(rows) < 2 {
		return nil, errors.DataLoadError("Excel file must have at least a header row and one data row", nil)
	}

	// GetRows trims trailing empty cells, so the header may be shorter
	// than the widest data row.
	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	padded := make([]string, width)
	copy(padded, header)

	table, err := dataset.NewTable(filename, normalizeHeaders(padded), rows[1:])
	if err != nil {
		return nil, errors.DataLoadError("malformed Excel sheet", err)
	}
	return table, nil
}

// normalizeHeaders trims names, fills blanks with "Unnamed: <i>" and
// deduplicates repeats as name.1, name.2, ...
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		headers[i] = name
	}
	return headers
}

func dropBlankRows(rows [][]string) [][]string {
	kept := rows[:0]
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			kept = append(kept, row)
		}
	}
	return kept
}

// ReadBytes is a convenience wrapper for in-memory uploads.
func ReadBytes(filename string, data []byte) (*dataset.Table, error) {
	return ReadTable(filename, bytes.NewReader(data))
}
