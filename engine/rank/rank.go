// Package rank scores resolved candidates and applies the acceptance gate.
// The bonus blends election-history signal into the raw similarity score;
// its weights are domain-tuned and must not be changed, downstream choices
// (prompt, threshold) were calibrated against them.
package rank

import (
	"sort"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/resolve"
)

// Threshold is the minimum final score an answer may be grounded on.
// The boundary is inclusive: exactly Threshold is accepted.
const Threshold = 0.2

// Bonus weights.
const (
	entryWeight     = 0.05 // per elector entry
	winnerBonus     = 0.1  // once, if any entry won
	voteShareWeight = 0.2  // max contribution per entry from vote share
)

// Scored is a candidate with its computed final score.
type Scored struct {
	resolve.Candidate
	Bonus float64
	Final float64
}

// Bonus computes the non-negative election-history bonus from a full
// politician payload. A missing or malformed electors field contributes
// zero, it is not an error: plenty of records have no election history.
func Bonus(payload map[string]any) float64 {
	electors, ok := payload["electors"].([]any)
	if !ok {
		return 0
	}

	score := float64(len(electors)) * entryWeight

	for _, e := range electors {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if won, ok := entry["winner"].(bool); ok && won {
			score += winnerBonus
			break
		}
	}

	for _, e := range electors {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		vp, ok := asFloat(entry["votePercentage"])
		if !ok {
			continue
		}
		share := vp / 100.0
		if share > 1 {
			share = 1
		}
		contribution := share * voteShareWeight
		if contribution > 0 {
			score += contribution
		}
	}
	return score
}

// asFloat accepts the numeric shapes a payload round-trip can produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Rank scores every candidate and sorts by final score descending. The
// sort is stable: ties keep the resolver's stage/store order.
func Rank(candidates []resolve.Candidate) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		bonus := Bonus(c.Full)
		scored[i] = Scored{
			Candidate: c,
			Bonus:     bonus,
			Final:     float64(c.Hit.Score) + bonus,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Final > scored[j].Final
	})
	return scored
}

// GateBest keeps only the top-ranked candidate, rejecting the whole query
// with domain.ErrLowSimilarity if it falls below the threshold.
func GateBest(scored []Scored) (Scored, error) {
	if len(scored) == 0 {
		return Scored{}, domain.ErrNoCandidates
	}
	best := scored[0]
	if best.Final < Threshold {
		return Scored{}, domain.ErrLowSimilarity
	}
	return best, nil
}

// GateTopK keeps up to k candidates at or above the threshold, rejecting
// the query if none survive.
func GateTopK(scored []Scored, k int) ([]Scored, error) {
	if len(scored) == 0 {
		return nil, domain.ErrNoCandidates
	}
	var kept []Scored
	for _, s := range scored {
		if s.Final >= Threshold {
			kept = append(kept, s)
			if len(kept) == k {
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil, domain.ErrLowSimilarity
	}
	return kept, nil
}
