package manifest

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParseFile_Valid(t *testing.T) {
	m, err := ParseFile(testPath("valid.yaml"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}

	want := &Manifest{
		Identifier:  "test",
		Name:        "test",
		Description: "sigma",
		Authors:     []string{"0x7d8", "Arnaud Ligma"},
		Version:     "1.0.0",
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("ParseFile = %+v, want %+v", m, want)
	}
}

func TestParseFile_IgnoresUnknownFields(t *testing.T) {
	m, err := ParseFile(testPath("valid-extra-fields.yaml"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if m.Identifier != "server-stats" {
		t.Errorf("Identifier = %q, want %q", m.Identifier, "server-stats")
	}
	if len(m.Authors) != 0 {
		t.Errorf("Authors = %v, want empty", m.Authors)
	}
	if m.Version != "2.3.1-beta.1" {
		t.Errorf("Version = %q, want %q", m.Version, "2.3.1-beta.1")
	}
}

func TestParseFile_Invalid(t *testing.T) {
	tests := []struct {
		file  string
		field string
	}{
		{"invalid-missing-version.yaml", "version"},
		{"invalid-bad-identifier.yaml", "identifier"},
		{"invalid-bad-version.yaml", "version"},
		{"invalid-authors-type.yaml", "authors"},
		{"invalid-scalar.yaml", ""},
		{"invalid-not-yaml.yaml", ""},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := ParseFile(testPath(tt.file))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("errors.Is(err, ErrInvalid) = false for %v", err)
			}
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidError, got %T", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("Field = %q, want %q (reason: %s)", invalid.Field, tt.field, invalid.Reason)
			}
			if invalid.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile(testPath("nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
	if errors.Is(err, ErrInvalid) {
		t.Error("a missing file is an I/O failure, not an invalid manifest")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	in := &Manifest{
		Identifier:  "test",
		Name:        "test",
		Description: "sigma",
		Authors:     []string{"0x7d8", "Arnaud Ligma"},
		Version:     "1.0.0",
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	keys := []string{"identifier:", "name:", "description:", "authors:", "version:"}
	last := -1
	for _, k := range keys {
		idx := strings.Index(string(data), k)
		if idx <= last {
			t.Fatalf("field %s out of order in:\n%s", k, data)
		}
		last = idx
	}

	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()) error: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestEncode_NilAuthors(t *testing.T) {
	data, err := Encode(&Manifest{Identifier: "a", Name: "a", Version: "0.1.0"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !strings.Contains(string(data), "authors: []") {
		t.Errorf("expected empty authors list, got:\n%s", data)
	}
	if _, err := Parse(data); err != nil {
		t.Errorf("Parse error: %v", err)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(&Manifest{Identifier: "ok", Name: "Ok", Version: "1.2.3"}); err != nil {
		t.Errorf("Check(valid) = %v", err)
	}

	err := Check(&Manifest{Identifier: "Not_OK", Name: "x", Version: "1.2.3"})
	var invalid *InvalidError
	if !errors.As(err, &invalid) || invalid.Field != "identifier" {
		t.Errorf("Check(bad identifier) = %v, want identifier error", err)
	}
}

func TestInvalidError_Message(t *testing.T) {
	err := &InvalidError{Field: "version", Reason: "missing required field"}
	if got, want := err.Error(), "invalid manifest: version: missing required field"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err = &InvalidError{Reason: "not a mapping"}
	if got, want := err.Error(), "invalid manifest: not a mapping"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
