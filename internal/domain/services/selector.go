package services

import (
	"regexp"
	"strings"

	"github.com/ochairo/decant/internal/domain/entities"
)

// Scoring constants. Preview builds are penalized harder than release
// candidates so a stable artifact always wins when one is published under
// the same architecture token.
const (
	previewPenalty = 1000
	rcPenalty      = 100
	canonicalBonus = 10
)

// rcMarker matches "rc" as a delimited qualifier ("-rc", ".rc2", "_rc-1")
// without firing on substrings of ordinary words.
var rcMarker = regexp.MustCompile(`(?i)(^|[-._])rc([-._0-9]|$)`)

// SelectAsset picks exactly one artifact from a release for the target
// platform. An asset qualifies when its name contains the platform's
// architecture token and ends with the platform suffix; among qualifiers the
// highest-scoring asset wins, ties broken by first-seen order. The winner's
// checksum sidecar (<name>.sha256) is attached when present.
func SelectAsset(release *entities.Release, platform entities.Platform, productName string) (*entities.Selection, error) {
	version := strings.TrimPrefix(release.Tag, "v")
	canonicalName := productName + "-" + version + "-" + platform.Suffix

	var best *entities.Asset
	bestScore := 0
	for i := range release.Assets {
		name := release.Assets[i].Name
		if !strings.Contains(name, platform.ArchToken) || !strings.HasSuffix(name, platform.Suffix) {
			continue
		}

		score := scoreAsset(name, canonicalName)
		if best == nil || score > bestScore {
			best = &release.Assets[i]
			bestScore = score
		}
	}

	if best == nil {
		return nil, entities.NewError(entities.KindNotFound,
			"no artifact ending in %q found in release %s", platform.Suffix, release.Tag).
			WithHint("check the release tag, or whether this platform is published for it")
	}

	return &entities.Selection{
		Asset:    *best,
		Checksum: findChecksumSidecar(release.Assets, best.Name),
	}, nil
}

func scoreAsset(name, canonicalName string) int {
	score := 0
	lower := strings.ToLower(name)
	if strings.Contains(lower, "preview") {
		score -= previewPenalty
	}
	if rcMarker.MatchString(name) {
		score -= rcPenalty
	}
	if name == canonicalName {
		score += canonicalBonus
	}
	return score
}

// findChecksumSidecar searches the full asset list for <assetName>.sha256.
// Absence is not an error here; the integrity verifier reports the skip.
func findChecksumSidecar(assets []entities.Asset, assetName string) *entities.Asset {
	want := assetName + ".sha256"
	for i := range assets {
		if assets[i].Name == want {
			return &assets[i]
		}
	}
	return nil
}
