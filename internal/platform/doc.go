// Package platform provides cross-platform filesystem operations: atomic file
// replacement and permission management. On Windows, Chmod is a no-op because
// Unix permission bits are not supported there.
package platform
