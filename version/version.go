package version

import (
	"fmt"
	"runtime/debug"
)

// Version can be set at build time:
// go build -ldflags "-X github.com/trancebox/trancebox/version.Version=$(git describe --dirty)"
var Version string

// Build describes the binary as recorded by the Go toolchain.
type Build struct {
	Revision  string
	Modified  bool
	GoVersion string
}

// ReadBuild returns the version control and toolchain information embedded
// in the binary. Fields are empty when the binary was built without it.
func ReadBuild() Build {
	var b Build
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	b.GoVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Revision = setting.Value
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}
	return b
}

// Hash is the short revision, with a -dirty suffix for modified trees.
func (b Build) Hash() string {
	if len(b.Revision) < 7 {
		return b.Revision
	}
	if b.Modified {
		return b.Revision[:7] + "-dirty"
	}
	return b.Revision[:7]
}

// VersionOrHash is Version if it was set at build time, the short revision
// otherwise.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return ReadBuild().Hash()
}()

// Long is VersionOrHash followed by the Go version, as printed by -v.
func Long() string {
	b := ReadBuild()
	v := VersionOrHash
	if v == "" {
		v = "devel"
	}
	if b.GoVersion == "" {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, b.GoVersion)
}
