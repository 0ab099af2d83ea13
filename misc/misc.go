// Package misc holds program identity values shared by the command and
// configuration packages.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "rptl"

var (
	version = "dev"
	githash = "unknown"

	once sync.Once
)

func readBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		version = v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) > 0 {
			githash = s.Value
			if len(githash) > 12 {
				githash = githash[:12]
			}
		}
	}
}

// GetAppName returns program name used for logs, temporary files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns program version taken from build information.
func GetVersion() string {
	once.Do(readBuildInfo)
	return version
}

// GetGitHash returns short VCS revision the program was built from.
func GetGitHash() string {
	once.Do(readBuildInfo)
	return githash
}
