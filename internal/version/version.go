// Package version carries build metadata injected with ldflags, e.g.
//
//	go build -ldflags "-X github.com/sean-rowe/weather-now/internal/version.Version=1.2.0" ./cmd/weather
package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set via ldflags; the defaults mark a development build.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime string    `json:"build_time"`
	BuildDate time.Time `json:"build_date,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
}

// Get returns version and build information.
//
// Returns:
//   - Info: Version details including Go runtime and platform information
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	// Development builds carry "unknown", which does not parse.
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildDate = t
	}

	return info
}

// String renders the info on one line, e.g. "dev (unknown) go1.24.5 linux/amd64".
func (i Info) String() string {
	commit := i.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s %s", i.Version, commit, i.GoVersion, i.Platform)
}
