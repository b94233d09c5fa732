// Package manifest models the manifest.yaml document carried at the root of
// an extension package archive and validates it against an embedded JSON
// schema plus a strict semantic-version check.
package manifest
