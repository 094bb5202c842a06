// Package version holds the build version of deckscan.
// Set it at build time with ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/MTGA-DeckScanner/internal/version.Version=v1.2.3" ./cmd/deckscan
package version

// Version defaults to "dev" for local builds.
var Version = "dev"

// UserAgent identifies the scanner to Scryfall, which asks API clients
// to name themselves.
func UserAgent() string {
	return "MTGA-DeckScanner/" + Version
}
