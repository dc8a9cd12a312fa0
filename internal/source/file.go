package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxLineSize bounds a single JSONL line; definition documents can run to
// several hundred kilobytes.
const maxLineSize = 16 * 1024 * 1024

// FileSource reads snapshot rows from JSONL files in a directory, one file
// per row type (<row-type>.jsonl). A missing file yields no rows, matching
// a snapshot that simply captured none of that type.
type FileSource struct {
	Dir string
}

// Fetch reads every record of rt.
func (s *FileSource) Fetch(_ context.Context, rt RowType) ([]Record, error) {
	path := filepath.Join(s.Dir, string(rt)+".jsonl")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid record: %w", path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// FileSink writes assembled lineage records as JSONL files in a directory,
// one file per record type.
type FileSink struct {
	Dir string
}

// Persist writes records for rt, replacing any previous file.
func (s *FileSink) Persist(_ context.Context, rt RecordType, records []Record) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.Dir, string(rt)+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write %s record: %w", rt, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}
