package util

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// ZipEntry is one named file inside an archive built with WriteZip.
type ZipEntry struct {
	Name string
	Data []byte
}

// WriteZip builds a deflate-compressed archive with one entry per input, in
// input order. Entry names must be unique.
func WriteZip(w io.Writer, entries []ZipEntry) error {
	zipWriter := zip.NewWriter(w)

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			return fmt.Errorf("zip entry with empty name")
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("duplicate zip entry %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}

		f, err := zipWriter.Create(entry.Name)
		if err != nil {
			return fmt.Errorf("create zip entry %q: %w", entry.Name, err)
		}
		if _, err := f.Write(entry.Data); err != nil {
			return fmt.Errorf("write zip entry %q: %w", entry.Name, err)
		}
	}

	return zipWriter.Close()
}

// ZipBytes is WriteZip into a byte slice.
func ZipBytes(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadZipEntries lists the entries of an archive produced by WriteZip,
// in archive order.
func ReadZipEntries(data []byte) ([]ZipEntry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	entries := make([]ZipEntry, 0, len(reader.File))
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %q: %w", f.Name, err)
		}

		content, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %q: %w", f.Name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close zip entry %q: %w", f.Name, closeErr)
		}

		entries = append(entries, ZipEntry{Name: f.Name, Data: content})
	}

	return entries, nil
}
