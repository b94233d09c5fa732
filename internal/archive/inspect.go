package archive

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/panelkit/panel/internal/manifest"
)

// Inspect opens the archive at path, validates its manifest and lists its
// payload entries. Manifest problems are returned as *manifest.InvalidError.
func Inspect(path string) (*Report, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveUnreadable, path, err)
	}
	defer r.Close()

	var (
		manifestFile *zip.File
		entries      = []Entry{}
	)
	for _, f := range r.File {
		switch {
		case f.Name == manifest.FileName:
			if manifestFile != nil {
				return nil, &manifest.InvalidError{
					Field:  manifest.FileName,
					Reason: "archive contains more than one " + manifest.FileName,
				}
			}
			manifestFile = f
		case isPayload(f.Name):
			entries = append(entries, Entry{Name: f.Name, Size: f.UncompressedSize64})
		}
	}

	if manifestFile == nil {
		return nil, &manifest.InvalidError{
			Field:  manifest.FileName,
			Reason: "archive does not contain " + manifest.FileName,
		}
	}

	data, err := readEntry(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveUnreadable, path, err)
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}

	return &Report{Path: path, Manifest: m, Entries: entries}, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxManifestSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", f.Name, f.UncompressedSize64, maxManifestSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxManifestSize)
	}
	return data, nil
}
