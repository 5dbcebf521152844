// Package buildinfo holds build-time version metadata.
//
// The variables are populated at build time via ldflags:
//
//	go build -ldflags "\
//	  -X github.com/gravitylab/gravita/pkg/buildinfo.Version=v1.0.0 \
//	  -X github.com/gravitylab/gravita/pkg/buildinfo.Commit=abc1234 \
//	  -X github.com/gravitylab/gravita/pkg/buildinfo.Date=2026-01-01"
package buildinfo

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git commit hash of the build.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns a single-line version description.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the version template used by the root command.
func Template() string {
	return fmt.Sprintf("gravita %s\n", String())
}
