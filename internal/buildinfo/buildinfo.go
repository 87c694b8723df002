// Package buildinfo carries build identifiers injected with
//
//	-ldflags "-X tickos/internal/buildinfo.Version=... -X tickos/internal/buildinfo.Commit=..."
package buildinfo

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for UI/logging: the version, or
// a short commit hash for development builds.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		if len(Commit) > 7 {
			return "dev-" + Commit[:7]
		}
		return "dev-" + Commit
	}
	return "dev"
}

// String returns all identifiers on one line.
func String() string {
	return "tickos " + Version + " (" + Commit + ", " + Date + ")"
}
