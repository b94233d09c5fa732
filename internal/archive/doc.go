// Package archive reads and writes extension package archives: zip files
// holding a manifest.yaml at the root and opaque payload under assets/.
//
// Archives are purely descriptive. Nothing in an archive is ever loaded or
// executed; the set of running extensions is fixed at build time.
package archive
