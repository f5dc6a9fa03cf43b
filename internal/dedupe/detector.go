// Package dedupe scores fuzzy duplicate-member candidates. It is pure and
// total: no database access, no side effects, and no error paths. Bad input
// degrades to a lower score or a skipped field, never a failure.
package dedupe

import (
	"sort"
	"strings"
	"time"

	"github.com/xrash/smetrics"

	"github.com/openkin/arbor/internal/store"
)

// Config lifts every similarity constant out of the algorithm so callers can
// tune per tree or per deployment.
type Config struct {
	HighThreshold     float64 `toml:"high_threshold"`      // default 0.85
	MediumThreshold   float64 `toml:"medium_threshold"`    // default 0.75
	LowThreshold      float64 `toml:"low_threshold"`       // default 0.60, candidates below are dropped
	DateThresholdDays int     `toml:"date_threshold_days"` // default 365
	MaxCandidates     int     `toml:"max_candidates"`      // default 5
	NameWeight        float64 `toml:"name_weight"`         // default 0.7
	DateWeight        float64 `toml:"date_weight"`         // default 0.3
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		HighThreshold:     0.85,
		MediumThreshold:   0.75,
		LowThreshold:      0.60,
		DateThresholdDays: 365,
		MaxCandidates:     5,
		NameWeight:        0.7,
		DateWeight:        0.3,
	}
}

// Probe is the incoming member being checked against existing records.
type Probe struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BirthDate *string `json:"birth_date,omitempty"`
}

// Matches flags which fields matched strongly on their own.
type Matches struct {
	FullName  bool `json:"full_name"`
	FirstName bool `json:"first_name"`
	LastName  bool `json:"last_name"`
	BirthDate bool `json:"birth_date"`
}

// Details is the per-candidate score breakdown.
type Details struct {
	NameSimilarity float64  `json:"name_similarity"`
	DateProximity  *float64 `json:"date_proximity,omitempty"`
	DaysApart      *int     `json:"days_apart,omitempty"`
}

// Candidate is one likely duplicate, ranked by score.
type Candidate struct {
	Member   store.Member `json:"member"`
	Score    float64      `json:"score"`
	Severity string       `json:"severity"` // high, medium, low
	Matches  Matches      `json:"matches"`
	Details  Details      `json:"details"`
}

// FindCandidates scores the probe against every existing member, drops ids in
// exclude (edit-mode self-exclusion) and anything under the low threshold,
// and returns the top candidates sorted by descending score.
func FindCandidates(probe Probe, existing []store.Member, exclude []string, cfg Config) []Candidate {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultConfig().MaxCandidates
	}
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	var candidates []Candidate
	for _, m := range existing {
		if excluded[m.ID] {
			continue
		}
		c := score(probe, m, cfg)
		if c.Score < cfg.LowThreshold {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Member.ID < candidates[j].Member.ID
	})
	if len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}
	return candidates
}

func score(probe Probe, m store.Member, cfg Config) Candidate {
	probeFull := normalize(probe.FirstName + " " + probe.LastName)
	memberFull := normalize(m.FirstName + " " + m.LastName)

	firstSim := nameSimilarity(normalize(probe.FirstName), normalize(m.FirstName))
	lastSim := nameSimilarity(normalize(probe.LastName), normalize(m.LastName))
	fullSim := nameSimilarity(probeFull, memberFull)

	best := fullSim
	if firstSim > best {
		best = firstSim
	}
	if lastSim > best {
		best = lastSim
	}

	c := Candidate{
		Member: m,
		Details: Details{
			NameSimilarity: best,
		},
		Matches: Matches{
			FullName:  fullSim >= cfg.HighThreshold,
			FirstName: firstSim >= cfg.HighThreshold,
			LastName:  lastSim >= cfg.HighThreshold,
		},
	}

	proximity, daysApart := dateProximity(probe.BirthDate, m.BirthDate, cfg.DateThresholdDays)
	if proximity != nil {
		c.Details.DateProximity = proximity
		c.Details.DaysApart = daysApart
		c.Matches.BirthDate = *daysApart == 0
		c.Score = cfg.NameWeight*best + cfg.DateWeight**proximity
	} else {
		c.Score = best
	}

	switch {
	case c.Score >= cfg.HighThreshold:
		c.Severity = "high"
	case c.Score >= cfg.MediumThreshold:
		c.Severity = "medium"
	case c.Score >= cfg.LowThreshold:
		c.Severity = "low"
	}
	return c
}

// nameSimilarity is the max of Jaro-Winkler and normalized Levenshtein.
// Empty against empty is no signal, not a perfect match.
func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	lev := 1 - float64(dist)/float64(longest)

	if jw > lev {
		return jw
	}
	return lev
}

// dateProximity returns 1 − daysApart/threshold clamped to [0, 1], or nil
// when either date is missing or unparsable.
func dateProximity(a, b *string, thresholdDays int) (*float64, *int) {
	if a == nil || b == nil || thresholdDays <= 0 {
		return nil, nil
	}
	ta, errA := time.Parse("2006-01-02", *a)
	tb, errB := time.Parse("2006-01-02", *b)
	if errA != nil || errB != nil {
		return nil, nil
	}

	days := int(ta.Sub(tb).Hours() / 24)
	if days < 0 {
		days = -days
	}
	p := 1 - float64(days)/float64(thresholdDays)
	if p < 0 {
		p = 0
	}
	return &p, &days
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
