// Package buildinfo exposes the version of the running fp4 binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/fp4-go/internal/infra/buildinfo.Version=v1.2.0"
//
// Development builds fall back to the VCS stamp recorded by the Go toolchain.
package buildinfo
