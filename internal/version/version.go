package version

import "runtime/debug"

// Version is the current rpcpost version.
var Version = "0.0.0-dev"

func init() {
	// Look through the binary's dependencies to find the current version.
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Path == modulePath && info.Main.Version != "(devel)" && info.Main.Version != "" {
			Version = info.Main.Version
		}

		for _, dep := range info.Deps {
			if dep.Path == modulePath {
				Version = dep.Version
			}
		}
	}
}

const modulePath = "github.com/dogmatiq/rpcpost"
