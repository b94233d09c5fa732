// Package cli defines the Cobra command tree for the panel binary. Each file
// registers one command (serve, extensions, config, version) with the root
// command. Command implementations delegate to internal packages for the
// real work and only handle flag parsing, I/O formatting and exit status.
package cli
