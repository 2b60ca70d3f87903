// Package version carries build metadata injected at link time.
package version

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit, and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}
