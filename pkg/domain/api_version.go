package domain

import (
	"fmt"
)

// APIVersion represents a valid police registry API version string.
// This is a domain primitive that enforces validity at parse time.
type APIVersion string

// Supported registry API versions.
const (
	APIVersionV1 APIVersion = "v1"
	APIVersionV2 APIVersion = "v2"
)

// versionOrder defines the ordering of versions for comparison.
// Higher numbers represent newer versions.
var versionOrder = map[APIVersion]int{
	APIVersionV1: 1,
	APIVersionV2: 2,
}

// ParseAPIVersion validates and returns an APIVersion.
// Returns an error if the version is unknown.
func ParseAPIVersion(s string) (APIVersion, error) {
	v := APIVersion(s)
	if _, ok := versionOrder[v]; !ok {
		return "", fmt.Errorf("unknown API version: %s", s)
	}
	return v, nil
}

// AtLeast reports whether v is the same as or newer than other.
func (v APIVersion) AtLeast(other APIVersion) bool {
	return versionOrder[v] >= versionOrder[other]
}

func (v APIVersion) String() string {
	return string(v)
}
