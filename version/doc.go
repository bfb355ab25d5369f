// Package version exposes build metadata set via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/hybridstt/version.Version=1.2.0 \
//	  -X github.com/kbukum/hybridstt/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Missing values fall back to the VCS stamp embedded by the Go toolchain.
package version
