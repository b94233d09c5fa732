package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Parse validates data and decodes it into a Manifest. Any schema or version
// problem is returned as an *InvalidError.
func Parse(data []byte) (*Manifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, &InvalidError{Reason: err.Error()}
	}
	if !result.Valid {
		return nil, result.Err()
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &InvalidError{Reason: err.Error()}
	}
	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Check validates m without a YAML round trip through the caller.
func Check(m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = Parse(data)
	return err
}

// Encode renders m as YAML with the fields in canonical order.
func Encode(m *Manifest) ([]byte, error) {
	out := *m
	if out.Authors == nil {
		out.Authors = []string{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func checkVersion(v string) error {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return &InvalidError{Field: "version", Reason: fmt.Sprintf("%q is not a semantic version: %v", v, err)}
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
