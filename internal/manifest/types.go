package manifest

import (
	"errors"
	"fmt"
)

// FileName is the archive entry holding the manifest.
const FileName = "manifest.yaml"

// ErrInvalid matches every *InvalidError.
var ErrInvalid = errors.New("invalid manifest")

// Manifest is the descriptive metadata of one extension package.
type Manifest struct {
	Identifier  string   `yaml:"identifier" json:"identifier"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Authors     []string `yaml:"authors" json:"authors"`
	Version     string   `yaml:"version" json:"version"`
}

// InvalidError reports the first manifest field that failed validation.
// Field is empty when the document as a whole is unusable.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalid, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalid, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) succeed.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}
