// Package version reports the version of the running rulekit build.
package version

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Version is set via ldflags:
//
//	-X github.com/macropower/rulekit/pkg/version.Version=v1.2.3
var Version string

// Info describes the running build.
type Info struct {
	// Version is the release version, the module version for builds with
	// `go install`, or the revision for development builds.
	Version string
	// Revision is the short VCS revision, with a "-dirty" suffix for builds
	// from a modified tree.
	Revision  string
	GoVersion string
}

var readBuildInfo = sync.OnceValue(func() Info {
	info := Info{
		Version:   Version,
		Revision:  "unknown",
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if info.Version == "" {
			info.Version = info.Revision
		}

		return info
	}

	var dirty bool

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value[:min(len(s.Value), 7)]
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if dirty {
		info.Revision += "-dirty"
	}

	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Version == "" {
		info.Version = info.Revision
	}

	return info
})

// Get returns the build [Info].
func Get() Info {
	return readBuildInfo()
}

// GetVersion returns [Info.Version].
func GetVersion() string {
	return Get().Version
}
