// Package scaffold generates the skeleton of a new compiled-in extension from
// embedded templates. It powers the "panel extensions create" command: a Go
// package implementing extension.Extension, its test, and a manifest.yaml
// matching the extension's descriptor.
package scaffold
