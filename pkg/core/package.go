// pkg/core/package.go
package core

// Package is a backend-specific package record.
// There is no identity across backends: the same software coming from two
// backends is two unrelated values.
type Package interface {
	PackageName() string
	PackageVersion() string

	// Columns returns the backend-specific listing columns, without the backend label
	Columns() []string
}
