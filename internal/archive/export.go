package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/manifest"
	"github.com/panelkit/panel/internal/platform"
)

// ExportOptions tunes Export.
type ExportOptions struct {
	// AssetsDir, when set, is walked and copied under assets/ in the archive.
	AssetsDir string
}

// Export writes the archive for the descriptor with the given identifier to
// dest. The file appears atomically: it is staged next to dest and renamed
// into place, so a failed export never leaves a partial archive behind.
func Export(descriptors []extension.Descriptor, identifier, dest string, opts ExportOptions) error {
	var (
		desc  extension.Descriptor
		found bool
	)
	for _, d := range descriptors {
		if d.Identifier == identifier {
			desc, found = d, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownExtension, identifier)
	}

	m := ManifestFor(desc)
	if err := manifest.Check(m); err != nil {
		return fmt.Errorf("extension %q: %w", identifier, err)
	}
	data, err := manifest.Encode(m)
	if err != nil {
		return err
	}

	return platform.WriteFileAtomic(dest, 0o644, func(w io.Writer) error {
		return writeArchive(w, data, opts.AssetsDir)
	})
}

func writeArchive(w io.Writer, manifestData []byte, assetsDir string) error {
	zw := zip.NewWriter(w)
	now := time.Now()

	mw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     manifest.FileName,
		Method:   zip.Deflate,
		Modified: now,
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", manifest.FileName, err)
	}
	if _, err := mw.Write(manifestData); err != nil {
		return fmt.Errorf("writing %s: %w", manifest.FileName, err)
	}

	if assetsDir != "" {
		if err := addAssets(zw, assetsDir); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addAssets(zw *zip.Writer, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("reading assets directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return fmt.Errorf("asset %s: %w", rel, err)
		}
		hdr.Name = AssetsPrefix + filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("asset %s: %w", rel, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("asset %s: %w", rel, err)
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return fmt.Errorf("asset %s: %w", rel, err)
		}
		return nil
	})
}
