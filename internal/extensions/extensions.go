// Package extensions holds the compiled-in extension list. Adding an
// extension to the panel means adding it to All and rebuilding.
package extensions

import (
	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions/activity"
	"github.com/panelkit/panel/internal/extensions/announcements"
)

// All returns every compiled-in extension in registration order. Each call
// builds fresh instances.
func All() []extension.Constructed {
	return []extension.Constructed{
		announcements.New(),
		activity.New(),
	}
}

// Descriptors returns the descriptors of All without constructing a registry.
func Descriptors() []extension.Descriptor {
	all := All()
	out := make([]extension.Descriptor, len(all))
	for i, c := range all {
		out[i] = c.Descriptor
	}
	return out
}
