// Package entities defines core domain models and data structures.
package entities

// Release is a tagged publication fetched from the release index.
// Immutable once fetched; created per resolution call.
type Release struct {
	Tag    string
	Assets []Asset
}

// Asset is a single downloadable artifact published under a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Platform describes how to recognize the artifact for the target machine:
// the asset name must contain ArchToken and end with Suffix.
type Platform struct {
	ArchToken string
	Suffix    string
}

// Selection is the output of asset scoring: exactly one winning asset and,
// if published alongside it, its checksum sidecar.
type Selection struct {
	Asset    Asset
	Checksum *Asset
}

// HasChecksum reports whether a checksum sidecar was found for the winner.
func (s *Selection) HasChecksum() bool {
	return s.Checksum != nil
}
