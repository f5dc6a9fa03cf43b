package dedupe

import (
	"sort"

	"github.com/openkin/arbor/internal/store"
)

// Pair is one suspicious member pair found by a whole-tree scan.
type Pair struct {
	A        store.Member `json:"a"`
	B        store.Member `json:"b"`
	Score    float64      `json:"score"`
	Severity string       `json:"severity"`
}

// ScanMembers compares every member of a tree against every other and
// returns likely-duplicate pairs sorted by descending score. This backs the
// `arbor dupes` maintenance command; the interactive path uses FindCandidates.
func ScanMembers(members []store.Member, cfg Config) []Pair {
	var pairs []Pair
	for i := range members {
		probe := Probe{
			FirstName: members[i].FirstName,
			LastName:  members[i].LastName,
			BirthDate: members[i].BirthDate,
		}
		for j := i + 1; j < len(members); j++ {
			c := score(probe, members[j], cfg)
			if c.Score < cfg.LowThreshold {
				continue
			}
			pairs = append(pairs, Pair{A: members[i], B: members[j], Score: c.Score, Severity: c.Severity})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].A.ID != pairs[j].A.ID {
			return pairs[i].A.ID < pairs[j].A.ID
		}
		return pairs[i].B.ID < pairs[j].B.ID
	})
	return pairs
}
