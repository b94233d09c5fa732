package scaffold

import (
	"bytes"
	"fmt"
	"go/format"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/panelkit/panel/internal/branding"
	"github.com/panelkit/panel/internal/manifest"
)

const templateSet = "extension"

// ScaffoldData holds all template variables available to scaffold templates.
type ScaffoldData struct {
	Identifier  string   // e.g., "server-stats"
	Name        string   // Display name, e.g., "Server Stats"
	Description string   // Human-readable description
	Authors     []string // Author names
	Version     string   // Semver, e.g., "0.1.0"
	PackageName string   // Derived: Go package name, e.g., "serverstats"
	Module      string   // Go module path of the host
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewScaffoldData creates a ScaffoldData with derived fields populated.
func NewScaffoldData(identifier string) *ScaffoldData {
	return &ScaffoldData{
		Identifier:  identifier,
		Name:        displayName(identifier),
		Description: fmt.Sprintf("%s extension: %s", branding.DisplayName(), identifier),
		Version:     "0.1.0",
		PackageName: PackageName(identifier),
		Module:      branding.GoModule(),
	}
}

// PackageName turns an extension identifier into a Go package name.
// Identifiers starting with a digit get an "ext" prefix.
func PackageName(identifier string) string {
	name := strings.NewReplacer("-", "", "_", "").Replace(identifier)
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "ext" + name
	}
	return name
}

// DefaultOutputDir is where an extension package is generated relative to
// the repository root.
func DefaultOutputDir(identifier string) string {
	return filepath.Join("internal", "extensions", PackageName(identifier))
}

func displayName(identifier string) string {
	words := strings.FieldsFunc(identifier, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Generate renders the extension template set into outputDir. The descriptor
// fields are validated as a manifest before anything is written.
func Generate(data *ScaffoldData, outputDir string) (*Result, error) {
	m := &manifest.Manifest{
		Identifier:  data.Identifier,
		Name:        data.Name,
		Description: data.Description,
		Authors:     data.Authors,
		Version:     data.Version,
	}
	if err := manifest.Check(m); err != nil {
		return nil, err
	}

	templatesDir := path.Join("scaffolds", templateSet)
	entries, err := fs.ReadDir(scaffoldFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", templateSet, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Refuse to overwrite an existing package.
	existingEntries, err := os.ReadDir(outputDir)
	if err == nil && len(existingEntries) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{
		OutputDir: outputDir,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		tmplPath := path.Join(templatesDir, entry.Name())
		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)

		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		out := buf.Bytes()
		if strings.HasSuffix(outName, ".go") {
			formatted, err := format.Source(out)
			if err != nil {
				return nil, fmt.Errorf("formatting %s: %w", outName, err)
			}
			out = formatted
		}

		if err := os.WriteFile(outPath, out, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
	}

	// Re-validate what was written in case a template drifted from the schema.
	manifestFile := filepath.Join(outputDir, manifest.FileName)
	if _, err := os.Stat(manifestFile); err == nil {
		if _, err := manifest.ParseFile(manifestFile); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	return result, nil
}
