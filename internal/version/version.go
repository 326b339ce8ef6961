// Package version reports the library version attached to telemetry.
package version

import "runtime/debug"

const modulePath = "github.com/aadauth/go-aad-filter"

// Version is overridden at build time with -ldflags "-X ...version.Version=...".
var Version = "0.0.0"

// Current returns Version, or the module version recorded in the build info
// when the library is consumed as a dependency.
func Current() string {
	if Version != "0.0.0" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == modulePath && dep.Version != "" {
				return dep.Version
			}
		}
	}
	return Version
}
