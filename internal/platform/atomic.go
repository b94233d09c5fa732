package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const tmpSuffix = ".tmp"

// WriteFileAtomic stages the output of write in a temporary file next to
// dest and renames it into place once write succeeds. On failure the
// temporary file is removed and dest is left untouched.
func WriteFileAtomic(dest string, mode os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("moving %s into place: %w", filepath.Base(dest), err)
	}
	committed = true
	return nil
}
