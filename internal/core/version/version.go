// Package version reports the build beesync was compiled from
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// Set with -ldflags "-X 'beesync/internal/core/version.version=v0.1.0'
// -X 'beesync/internal/core/version.commit=abcd' -X 'beesync/internal/core/version.date=2026-01-02'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "beesync",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// UserAgent is the User-Agent sent to the ledger
func UserAgent() string { return "beesync/" + version }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
