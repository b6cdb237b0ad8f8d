// Package export writes the clustered table: the CSV download artifact and
// the binary snapshot kept on local disk.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"patientcluster/domain/dataset"
	"patientcluster/internal/errors"
)

const (
	// DownloadFilename is the name offered for the CSV download.
	DownloadFilename = "clustered_patients.csv"
	// DownloadMIMEType is the content type of the CSV download.
	DownloadMIMEType = "text/csv"
	// DefaultSnapshotPath is where the binary snapshot is written.
	DefaultSnapshotPath = "clustered_patients.gob"
)

// WriteCSV writes the table as UTF-8 comma-separated text, header first.
func WriteCSV(w io.Writer, table *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return errors.ExportError("failed to write CSV header", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return errors.ExportError("failed to write CSV rows", err)
	}
	return nil
}

// CSVBytes renders the table as an in-memory CSV document.
func CSVBytes(table *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snapshot is the persisted form of a clustered table.
type Snapshot struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// SaveSnapshot gob-encodes the table to path. The file is written to a
// temporary sibling and renamed, so readers never observe a partial file
// and the last writer wins.
func SaveSnapshot(path string, table *dataset.Table) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.ExportError("failed to create snapshot file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	snap := Snapshot{Name: table.Name, Headers: table.Headers, Rows: table.Rows}
	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		cleanup()
		return errors.ExportError("failed to encode snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.ExportError("failed to flush snapshot", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.ExportError("failed to move snapshot into place", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ExportError("failed to open snapshot", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, errors.ExportError("failed to decode snapshot", err)
	}
	return &dataset.Table{Name: snap.Name, Headers: snap.Headers, Rows: snap.Rows}, nil
}
