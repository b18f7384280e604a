// Package resolve turns a query vector and a set of extracted names into a
// deduplicated candidate set of (search hit, full record) pairs. Stages run
// in order and short-circuit once enough candidates exist: name-biased
// search narrows to an allow-set, filtered then general semantic search
// fill the set from the basic index, and the detail index is the last
// resort. Final ordering is left entirely to the reranker.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
)

// Candidate pairs a search hit with the fully hydrated politician record.
// It lives only for the duration of one query.
type Candidate struct {
	Hit  semantic.SearchHit
	Full map[string]any
}

// Searcher is the slice of the vector store the resolver needs.
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, limit int, opts semantic.SearchOpts) ([]semantic.SearchHit, error)
	RetrieveByID(ctx context.Context, collection string, id int64) (map[string]any, error)
}

// Embedder embeds extracted name text for the name-biased stage.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options tunes stage limits.
type Options struct {
	// PerNameLimit caps hits collected per extracted name.
	PerNameLimit int
	// FilteredLimit is the raised limit for the allow-set-filtered search,
	// sized to tolerate filter selectivity.
	FilteredLimit int
	// MinCandidates is the count below which the general semantic stage
	// still runs.
	MinCandidates int
	// GeneralLimit caps the unfiltered basic-index search.
	GeneralLimit int
	// DetailLimit caps the detail-index fallback search.
	DetailLimit int
}

// DefaultOptions returns the tuned stage limits.
func DefaultOptions() Options {
	return Options{
		PerNameLimit:  5,
		FilteredLimit: 15,
		MinCandidates: 3,
		GeneralLimit:  10,
		DetailLimit:   10,
	}
}

// Resolver orchestrates the retrieval stages.
type Resolver struct {
	store  Searcher
	embed  Embedder
	opts   Options
	logger *slog.Logger
}

// New creates a Resolver.
func New(store Searcher, embed Embedder, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, embed: embed, opts: opts, logger: logger}
}

// Resolve runs the staged retrieval for one query. queryVec is the embedded
// user query; names are the extracted person names (may be empty).
// An empty final set returns domain.ErrNoCandidates; store and embedding
// failures propagate as-is.
func (r *Resolver) Resolve(ctx context.Context, queryVec []float32, names []string) ([]Candidate, error) {
	allowIDs, err := r.nameAllowSet(ctx, names)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	seen := make(map[int64]bool)

	if len(allowIDs) > 0 {
		hits, err := r.store.Search(ctx, semantic.CollectionBasic, queryVec, r.opts.FilteredLimit, semantic.SearchOpts{
			VectorName: semantic.VectorText,
			AllowIDs:   allowIDs,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve: filtered search: %w", err)
		}
		candidates, err = r.appendHydrated(ctx, candidates, seen, hits)
		if err != nil {
			return nil, err
		}
	}

	if len(candidates) < r.opts.MinCandidates {
		hits, err := r.store.Search(ctx, semantic.CollectionBasic, queryVec, r.opts.GeneralLimit, semantic.SearchOpts{
			VectorName: semantic.VectorText,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve: general search: %w", err)
		}
		candidates, err = r.appendHydrated(ctx, candidates, seen, hits)
		if err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		r.logger.Info("resolve: basic index empty, falling back to detail index")
		hits, err := r.store.Search(ctx, semantic.CollectionDetail, queryVec, r.opts.DetailLimit, semantic.SearchOpts{})
		if err != nil {
			return nil, fmt.Errorf("resolve: detail search: %w", err)
		}
		for _, hit := range hits {
			if seen[hit.ID] {
				continue
			}
			seen[hit.ID] = true
			// Detail payload already carries the full record.
			candidates = append(candidates, Candidate{Hit: hit, Full: unwrapDetail(hit.Payload)})
		}
	}

	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}
	return candidates, nil
}

// nameAllowSet embeds each extracted name and searches the name vector
// space, unioning the matching ids in first-seen order.
func (r *Resolver) nameAllowSet(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var allow []int64
	seen := make(map[int64]bool)
	for _, name := range names {
		vec, err := r.embed.Embed(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve: embed name %q: %w", name, err)
		}
		hits, err := r.store.Search(ctx, semantic.CollectionBasic, vec, r.opts.PerNameLimit, semantic.SearchOpts{
			VectorName: semantic.VectorName,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve: name search %q: %w", name, err)
		}
		for _, hit := range hits {
			if !seen[hit.ID] {
				seen[hit.ID] = true
				allow = append(allow, hit.ID)
			}
		}
	}
	return allow, nil
}

// appendHydrated hydrates basic-index hits from the detail collection and
// appends them, skipping ids already collected. A hit missing from the
// detail collection keeps its own (lean) payload rather than being dropped.
func (r *Resolver) appendHydrated(ctx context.Context, candidates []Candidate, seen map[int64]bool, hits []semantic.SearchHit) ([]Candidate, error) {
	for _, hit := range hits {
		if seen[hit.ID] {
			continue
		}
		seen[hit.ID] = true

		full, err := r.store.RetrieveByID(ctx, semantic.CollectionDetail, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve: hydrate %d: %w", hit.ID, err)
		}
		if full == nil {
			full = hit.Payload
		} else {
			full = unwrapDetail(full)
		}
		candidates = append(candidates, Candidate{Hit: hit, Full: full})
	}
	return candidates, nil
}

// unwrapDetail unwraps the detail collection's payload wrapper. Older
// ingests stored the record directly, so a missing wrapper key passes the
// payload through.
func unwrapDetail(payload map[string]any) map[string]any {
	if inner, ok := payload["full_payload"].(map[string]any); ok {
		return inner
	}
	return payload
}
