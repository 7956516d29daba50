// Package archive packs an encoded favicon bundle into a ZIP file.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/encoder"
)

// ArchiveError reports a failure while writing the archive.
type ArchiveError struct {
	Entry string
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("write archive: %v", e.Err)
	}
	return fmt.Sprintf("write archive entry %s: %v", e.Entry, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// Entries get a fixed timestamp so identical bundles give identical bytes.
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	pngPrefix string
}

// Option configures Build.
type Option func(*options)

// WithPNGPrefix sets the PNG file name prefix ("favicon" by default).
func WithPNGPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.pngPrefix = prefix
		}
	}
}

// Build writes favicon.ico followed by one PNG per size and returns the
// complete archive. Nothing is returned on error.
func Build(b *encoder.Bundle, opts ...Option) ([]byte, error) {
	if b == nil || len(b.ICO) == 0 {
		return nil, &ArchiveError{Entry: constants.IcoFileName, Err: fmt.Errorf("bundle has no icon data")}
	}
	o := options{pngPrefix: constants.PNGPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := entryNames(b, o.pngPrefix)
	if err := writeEntry(zw, names[0], b.ICO); err != nil {
		return nil, err
	}
	for i, p := range b.PNGs {
		if err := writeEntry(zw, names[i+1], p.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &ArchiveError{Err: err}
	}
	return buf.Bytes(), nil
}

// entryNames lists the names Build writes, in order.
func entryNames(b *encoder.Bundle, pngPrefix string) []string {
	names := []string{constants.IcoFileName}
	for _, p := range b.PNGs {
		names = append(names, fmt.Sprintf("%s-%s.png", pngPrefix, p.Label()))
	}
	return names
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modTime,
	})
	if err != nil {
		return &ArchiveError{Entry: name, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &ArchiveError{Entry: name, Err: err}
	}
	return nil
}

// Entry is one file read back from an archive.
type Entry struct {
	Name string
	Data []byte
}

// Read returns the entries of a ZIP archive in stored order.
func Read(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		var b bytes.Buffer
		_, err = b.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: b.Bytes()})
	}
	return entries, nil
}
