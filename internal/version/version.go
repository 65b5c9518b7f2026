// Package version reports the version of the configlib binary.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/gopasspw/configlib/internal/version.Version=v1.2.3 \
//	                   -X github.com/gopasspw/configlib/internal/version.Commit=abc123"
//
// If not set, Get fills them in from the VCS information in the build info.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

// Info describes a build.
type Info struct {
	Version string
	Commit  string
}

// String returns the full version string including the commit.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s)", i.Version, i.Commit)
}

// Get determines the version of the running binary. It should be called once
// at startup and the result passed to whoever needs it.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}

	if bi, ok := debug.ReadBuildInfo(); ok && (info.Version == "" || info.Commit == "") {
		info = fromBuildInfo(info, bi)
	}

	if info.Version == "" {
		info.Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}

	return info
}

// fromBuildInfo fills missing fields from the VCS settings of the build.
func fromBuildInfo(info Info, bi *debug.BuildInfo) Info {
	var vcsRevision, vcsModified, vcsTime string
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if info.Commit == "" && vcsRevision != "" {
		info.Commit = vcsRevision
		if len(vcsRevision) > 7 {
			info.Commit = vcsRevision[:7]
		}
		if vcsModified == "true" {
			info.Commit += "-dirty"
		}
	}

	if info.Version == "" {
		// module versions are only known for `go install pkg@version`
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		} else if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			info.Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}

	return info
}
