package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
)

// --- mocks ---

type searchCall struct {
	collection string
	vectorName string
	allowIDs   []int64
}

type mockStore struct {
	// keyed by collection + vector space
	basicByName []semantic.SearchHit
	basicByText []semantic.SearchHit
	detail      []semantic.SearchHit
	detailByID  map[int64]map[string]any
	searchErr   error
	calls       []searchCall
}

func (m *mockStore) Search(_ context.Context, collection string, _ []float32, _ int, opts semantic.SearchOpts) ([]semantic.SearchHit, error) {
	m.calls = append(m.calls, searchCall{collection: collection, vectorName: opts.VectorName, allowIDs: opts.AllowIDs})
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if collection == semantic.CollectionDetail {
		return m.detail, nil
	}
	if opts.VectorName == semantic.VectorName {
		return m.basicByName, nil
	}
	hits := m.basicByText
	if len(opts.AllowIDs) > 0 {
		allowed := make(map[int64]bool, len(opts.AllowIDs))
		for _, id := range opts.AllowIDs {
			allowed[id] = true
		}
		var filtered []semantic.SearchHit
		for _, h := range hits {
			if allowed[h.ID] {
				filtered = append(filtered, h)
			}
		}
		return filtered, nil
	}
	return hits, nil
}

func (m *mockStore) RetrieveByID(_ context.Context, _ string, id int64) (map[string]any, error) {
	return m.detailByID[id], nil
}

type mockEmbedder struct {
	err   error
	calls []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2}, nil
}

func newResolver(store *mockStore, embed *mockEmbedder) *Resolver {
	return New(store, embed, DefaultOptions(), nil)
}

// --- tests ---

func TestResolve_NameBiasedPath(t *testing.T) {
	store := &mockStore{
		basicByName: []semantic.SearchHit{{ID: 1, Score: 0.9}},
		basicByText: []semantic.SearchHit{
			{ID: 1, Score: 0.8, Payload: map[string]any{"name": "이낙연"}},
			{ID: 2, Score: 0.7, Payload: map[string]any{"name": "홍길동"}},
		},
		detailByID: map[int64]map[string]any{
			1: {"full_payload": map[string]any{"name": "이낙연", "career": "국무총리"}},
		},
	}
	embed := &mockEmbedder{}

	got, err := newResolver(store, embed).Resolve(context.Background(), []float32{0.5}, []string{"이낙연"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Allow-set restricts to id 1; with fewer than MinCandidates the
	// general stage runs and adds id 2.
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Hit.ID != 1 {
		t.Errorf("first candidate = %d, want 1", got[0].Hit.ID)
	}
	if got[0].Full["career"] != "국무총리" {
		t.Errorf("candidate 1 not hydrated from detail: %v", got[0].Full)
	}
	// Hit 2 has no detail record and keeps its own payload.
	if got[1].Full["name"] != "홍길동" {
		t.Errorf("candidate 2 payload = %v, want lean fallback", got[1].Full)
	}

	// Name embedding happened once per name.
	if len(embed.calls) != 1 || embed.calls[0] != "이낙연" {
		t.Errorf("embed calls = %v, want [이낙연]", embed.calls)
	}
}

func TestResolve_FilteredStageEmptyFallsThrough(t *testing.T) {
	// Name search matches an id the text search never returns: the
	// filtered stage yields nothing and the general stage must still run.
	store := &mockStore{
		basicByName: []semantic.SearchHit{{ID: 99, Score: 0.9}},
		basicByText: []semantic.SearchHit{{ID: 4, Score: 0.6, Payload: map[string]any{}}},
	}
	got, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, []string{"이낙연"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].Hit.ID != 4 {
		t.Fatalf("candidates = %v, want general-stage hit", got)
	}
}

func TestResolve_NoNamesSkipsNameStage(t *testing.T) {
	store := &mockStore{
		basicByText: []semantic.SearchHit{{ID: 3, Score: 0.6, Payload: map[string]any{}}},
	}
	got, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].Hit.ID != 3 {
		t.Fatalf("candidates = %v", got)
	}
	for _, c := range store.calls {
		if c.vectorName == semantic.VectorName {
			t.Error("name vector space searched with no names")
		}
	}
}

func TestResolve_DetailFallback(t *testing.T) {
	store := &mockStore{
		detail: []semantic.SearchHit{
			{ID: 7, Score: 0.5, Payload: map[string]any{
				"full_payload": map[string]any{"name": "김철수"},
			}},
		},
	}
	got, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	// Wrapper must be unwrapped.
	if got[0].Full["name"] != "김철수" {
		t.Errorf("Full = %v, want unwrapped record", got[0].Full)
	}
}

func TestResolve_UnwrappedDetailPassesThrough(t *testing.T) {
	store := &mockStore{
		detail: []semantic.SearchHit{
			{ID: 8, Score: 0.5, Payload: map[string]any{"name": "박영희"}},
		},
	}
	got, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got[0].Full["name"] != "박영희" {
		t.Errorf("Full = %v, want passthrough record", got[0].Full)
	}
}

func TestResolve_Empty(t *testing.T) {
	store := &mockStore{}
	_, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, nil)
	if !errors.Is(err, domain.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestResolve_StoreErrorPropagates(t *testing.T) {
	store := &mockStore{searchErr: fmt.Errorf("qdrant unavailable")}
	_, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, nil)
	if err == nil || domain.IsSoftOutcome(err) {
		t.Fatalf("err = %v, want hard infrastructure error", err)
	}
}

func TestResolve_EmbedErrorPropagates(t *testing.T) {
	store := &mockStore{}
	embed := &mockEmbedder{err: fmt.Errorf("ollama down")}
	_, err := newResolver(store, embed).Resolve(context.Background(), []float32{0.5}, []string{"이낙연"})
	if err == nil || domain.IsSoftOutcome(err) {
		t.Fatalf("err = %v, want hard infrastructure error", err)
	}
}

func TestResolve_NoDuplicates(t *testing.T) {
	store := &mockStore{
		basicByName: []semantic.SearchHit{{ID: 1, Score: 0.9}},
		basicByText: []semantic.SearchHit{
			{ID: 1, Score: 0.8, Payload: map[string]any{}},
			{ID: 2, Score: 0.7, Payload: map[string]any{}},
		},
	}
	got, err := newResolver(store, &mockEmbedder{}).Resolve(context.Background(), []float32{0.5}, []string{"이낙연", "리낙연"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	seen := make(map[int64]int)
	for _, c := range got {
		seen[c.Hit.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("candidate %d appears %d times", id, n)
		}
	}
}
