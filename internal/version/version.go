// Package version holds the build stamp of the harness binary, set with
// -ldflags "-X github.com/skilltree/skilltree-e2e/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String is the short form cobra prints for --version.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full adds the build date and Go version.
func Full() string {
	return fmt.Sprintf("%s (%s) built %s with %s", Version, GitCommit, BuildDate, runtime.Version())
}

// UserAgent identifies fixture traffic in backend access logs.
func UserAgent() string {
	return "skilltree-e2e/" + Version
}
