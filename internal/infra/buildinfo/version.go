package buildinfo

import "runtime"

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = ""
)

// Info contains build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information.
func Get() Info {
	goVersion := GoVersion
	if goVersion == "" {
		goVersion = runtime.Version()
	}
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: goVersion,
	}
}

// String returns a one-line version string.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + BuildTime + ")"
}
