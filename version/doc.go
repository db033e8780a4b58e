// Package version exposes the build stamp of the roundtrip binary.
//
// Set the version at build time:
//
//	go build -ldflags "-X github.com/kbukum/roundtrip/version.Version=1.0.0" ./cmd/roundtrip
//
// Commit and build date fall back to the VCS stamp in the build info.
package version
