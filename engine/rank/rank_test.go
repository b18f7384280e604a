package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/resolve"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
)

func candidate(id int64, score float32, payload map[string]any) resolve.Candidate {
	return resolve.Candidate{
		Hit:  semantic.SearchHit{ID: id, Score: score, Payload: payload},
		Full: payload,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestBonus_Empty(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"no electors field", map[string]any{"name": "홍길동"}},
		{"empty electors", map[string]any{"electors": []any{}}},
		{"electors not a list", map[string]any{"electors": "corrupt"}},
		{"electors is a map", map[string]any{"electors": map[string]any{"winner": true}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Bonus(tc.payload); got != 0 {
				t.Errorf("Bonus = %v, want 0", got)
			}
		})
	}
}

func TestBonus_EntryAndWinner(t *testing.T) {
	payload := map[string]any{
		"electors": []any{
			map[string]any{"winner": true, "votePercentage": 50.0},
			map[string]any{"winner": false, "votePercentage": 40.0},
		},
	}
	// 2*0.05 + 0.1 + 0.5*0.2 + 0.4*0.2
	want := 0.1 + 0.1 + 0.1 + 0.08
	if got := Bonus(payload); !almostEqual(got, want) {
		t.Errorf("Bonus = %v, want %v", got, want)
	}
}

func TestBonus_WinnerCountedOnce(t *testing.T) {
	payload := map[string]any{
		"electors": []any{
			map[string]any{"winner": true},
			map[string]any{"winner": true},
			map[string]any{"winner": true},
		},
	}
	want := 3*0.05 + 0.1
	if got := Bonus(payload); !almostEqual(got, want) {
		t.Errorf("Bonus = %v, want %v", got, want)
	}
}

func TestBonus_VoteShareClamped(t *testing.T) {
	payload := map[string]any{
		"electors": []any{
			map[string]any{"votePercentage": 150.0},
		},
	}
	// share clamps to 1, contribution capped at 0.2
	want := 0.05 + 0.2
	if got := Bonus(payload); !almostEqual(got, want) {
		t.Errorf("Bonus = %v, want %v", got, want)
	}
}

func TestBonus_NegativeVoteShareIgnored(t *testing.T) {
	payload := map[string]any{
		"electors": []any{
			map[string]any{"votePercentage": -30.0},
		},
	}
	// negative contribution skipped, entry weight still counts
	if got := Bonus(payload); !almostEqual(got, 0.05) {
		t.Errorf("Bonus = %v, want 0.05", got)
	}
}

func TestBonus_MalformedEntriesSkipped(t *testing.T) {
	payload := map[string]any{
		"electors": []any{
			"garbage",
			map[string]any{"winner": true, "votePercentage": "not a number"},
		},
	}
	want := 2*0.05 + 0.1
	if got := Bonus(payload); !almostEqual(got, want) {
		t.Errorf("Bonus = %v, want %v", got, want)
	}
}

func TestBonus_Monotonic(t *testing.T) {
	// Adding an elector entry never lowers the bonus.
	base := []any{
		map[string]any{"winner": false, "votePercentage": 20.0},
	}
	more := append(append([]any{}, base...), map[string]any{"winner": false, "votePercentage": 0.0})

	a := Bonus(map[string]any{"electors": base})
	b := Bonus(map[string]any{"electors": more})
	if b < a {
		t.Errorf("bonus decreased after adding entry: %v -> %v", a, b)
	}

	// Marking an entry as won never decreases the bonus either.
	won := []any{map[string]any{"winner": true, "votePercentage": 20.0}}
	if Bonus(map[string]any{"electors": won}) < a {
		t.Error("bonus decreased after marking entry as winner")
	}

	// Raising vote percentage never decreases it.
	higher := []any{map[string]any{"winner": false, "votePercentage": 80.0}}
	if Bonus(map[string]any{"electors": higher}) < a {
		t.Error("bonus decreased after raising vote percentage")
	}
}

func TestRank_SortsByFinalDescending(t *testing.T) {
	winner := map[string]any{
		"electors": []any{map[string]any{"winner": true, "votePercentage": 60.0}},
	}
	cands := []resolve.Candidate{
		candidate(1, 0.5, map[string]any{}),
		candidate(2, 0.3, winner), // 0.3 + 0.05 + 0.1 + 0.12 = 0.57
	}

	scored := Rank(cands)
	if scored[0].Hit.ID != 2 {
		t.Fatalf("top candidate = %d, want 2", scored[0].Hit.ID)
	}
	if !almostEqual(scored[0].Final, 0.57) {
		t.Errorf("Final = %v, want 0.57", scored[0].Final)
	}
	if !almostEqual(scored[1].Final, 0.5) {
		t.Errorf("Final = %v, want 0.5", scored[1].Final)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	cands := []resolve.Candidate{
		candidate(10, 0.4, map[string]any{}),
		candidate(20, 0.4, map[string]any{}),
	}
	scored := Rank(cands)
	if scored[0].Hit.ID != 10 || scored[1].Hit.ID != 20 {
		t.Errorf("tie order changed: got %d, %d", scored[0].Hit.ID, scored[1].Hit.ID)
	}
}

func TestGateBest_ThresholdInclusive(t *testing.T) {
	scored := Rank([]resolve.Candidate{candidate(1, 0.2, map[string]any{})})
	best, err := GateBest(scored)
	if err != nil {
		t.Fatalf("GateBest at exactly threshold rejected: %v", err)
	}
	if best.Hit.ID != 1 {
		t.Errorf("best = %d, want 1", best.Hit.ID)
	}
}

func TestGateBest_BelowThreshold(t *testing.T) {
	scored := Rank([]resolve.Candidate{candidate(1, 0.19, map[string]any{})})
	_, err := GateBest(scored)
	if !errors.Is(err, domain.ErrLowSimilarity) {
		t.Fatalf("err = %v, want ErrLowSimilarity", err)
	}
}

func TestGateBest_BonusRescuesLowSimilarity(t *testing.T) {
	// Raw similarity alone fails the gate; election history pushes it over.
	payload := map[string]any{
		"electors": []any{map[string]any{"winner": true, "votePercentage": 50.0}},
	}
	scored := Rank([]resolve.Candidate{candidate(1, 0.05, payload)})
	if _, err := GateBest(scored); err != nil {
		t.Fatalf("GateBest rejected rescued candidate: %v", err)
	}
}

func TestGateBest_AcceptsZeroBonusAboveThreshold(t *testing.T) {
	scored := Rank([]resolve.Candidate{candidate(1, 0.4, map[string]any{"electors": []any{}})})
	best, err := GateBest(scored)
	if err != nil {
		t.Fatalf("GateBest: %v", err)
	}
	if best.Bonus != 0 {
		t.Errorf("Bonus = %v, want 0", best.Bonus)
	}
}

func TestGateBest_Empty(t *testing.T) {
	_, err := GateBest(nil)
	if !errors.Is(err, domain.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestGateTopK(t *testing.T) {
	scored := Rank([]resolve.Candidate{
		candidate(1, 0.5, map[string]any{}),
		candidate(2, 0.3, map[string]any{}),
		candidate(3, 0.1, map[string]any{}),
	})

	kept, err := GateTopK(scored, 2)
	if err != nil {
		t.Fatalf("GateTopK: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(kept))
	}
	if kept[0].Hit.ID != 1 || kept[1].Hit.ID != 2 {
		t.Errorf("kept = %d, %d, want 1, 2", kept[0].Hit.ID, kept[1].Hit.ID)
	}

	_, err = GateTopK(Rank([]resolve.Candidate{candidate(9, 0.01, map[string]any{})}), 3)
	if !errors.Is(err, domain.ErrLowSimilarity) {
		t.Errorf("err = %v, want ErrLowSimilarity", err)
	}
}
