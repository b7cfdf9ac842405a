package store

import "github.com/agnivade/levenshtein"

// suggest returns the known type closest to typ within maxDistance edits, or
// "" when none is close enough. Ties resolve to the earlier entry in known.
func suggest(typ string, known []string, maxDistance int) string {
	if maxDistance <= 0 {
		return ""
	}

	best, bestDistance := "", maxDistance+1
	for _, k := range known {
		if d := levenshtein.ComputeDistance(typ, k); d < bestDistance {
			best, bestDistance = k, d
		}
	}
	return best
}
