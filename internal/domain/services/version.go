// Package services contains pure domain logic with no I/O.
package services

import (
	"strconv"
	"strings"
)

// Comparison is the result of ordering two version strings.
type Comparison int

// Version ordering results.
const (
	Less    Comparison = -1
	Equal   Comparison = 0
	Greater Comparison = 1
)

// CompareVersions imposes a total order over semantic-version-like strings.
// A single leading "v" tag prefix is stripped from both inputs. Dotted
// numeric components are compared as integers, with a pre-release suffix
// ("rc", "preview", ...) ranked below the equivalent release.
//
// Known limitation: when either input fails structured parsing the
// comparison falls back to bytewise lexicographic order, which can misorder
// non-canonical tags (e.g. "9" vs "10" inside a word). This mirrors the
// behavior expected for malformed tags rather than failing the run.
func CompareVersions(a, b string) Comparison {
	va, okA := parseVersion(a)
	vb, okB := parseVersion(b)
	if !okA || !okB {
		return compareLexicographic(a, b)
	}

	maxLen := len(va.numbers)
	if len(vb.numbers) > maxLen {
		maxLen = len(vb.numbers)
	}
	for i := 0; i < maxLen; i++ {
		var na, nb int
		if i < len(va.numbers) {
			na = va.numbers[i]
		}
		if i < len(vb.numbers) {
			nb = vb.numbers[i]
		}
		if na != nb {
			if na < nb {
				return Less
			}
			return Greater
		}
	}

	// Numeric components equal: a release outranks any pre-release.
	switch {
	case va.prerelease == vb.prerelease:
		return Equal
	case va.prerelease == "":
		return Greater
	case vb.prerelease == "":
		return Less
	default:
		return compareLexicographic(va.prerelease, vb.prerelease)
	}
}

type parsedVersion struct {
	numbers    []int
	prerelease string
}

// parseVersion splits "1.2.3-rc.1" into numeric components and an optional
// pre-release suffix. Returns ok=false for anything non-numeric.
func parseVersion(v string) (parsedVersion, bool) {
	v = strings.TrimPrefix(v, "v")

	core := v
	prerelease := ""
	if idx := strings.IndexByte(v, '-'); idx >= 0 {
		core = v[:idx]
		prerelease = v[idx+1:]
	}

	if core == "" {
		return parsedVersion{}, false
	}

	parts := strings.Split(core, ".")
	numbers := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return parsedVersion{}, false
		}
		numbers = append(numbers, n)
	}

	return parsedVersion{numbers: numbers, prerelease: prerelease}, true
}

func compareLexicographic(a, b string) Comparison {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}
