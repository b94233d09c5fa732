package archive

import (
	"errors"
	"strings"

	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/manifest"
)

// AssetsPrefix is the directory inside an archive that holds payload entries.
const AssetsPrefix = "assets/"

// maxManifestSize bounds how much of manifest.yaml is read into memory.
const maxManifestSize = 1 << 20

var (
	// ErrArchiveUnreadable is returned when a file is missing or is not a
	// readable zip archive.
	ErrArchiveUnreadable = errors.New("archive unreadable")

	// ErrUnknownExtension is returned by Export when no compiled-in
	// extension has the requested identifier.
	ErrUnknownExtension = errors.New("unknown extension")
)

// Entry is one payload file inside an archive.
type Entry struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

// Report is the result of inspecting an archive.
type Report struct {
	Path     string             `json:"path"`
	Manifest *manifest.Manifest `json:"manifest"`
	Entries  []Entry            `json:"entries"`
}

// ManifestFor projects a descriptor onto the manifest written into archives.
func ManifestFor(d extension.Descriptor) *manifest.Manifest {
	return &manifest.Manifest{
		Identifier:  d.Identifier,
		Name:        d.Name,
		Description: d.Description,
		Authors:     append([]string{}, d.Authors...),
		Version:     d.Version,
	}
}

func isPayload(name string) bool {
	return name != manifest.FileName && !strings.HasSuffix(name, "/")
}
