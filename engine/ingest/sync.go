package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skorea6/llm-politician-ai/engine/graph"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
	"github.com/skorea6/llm-politician-ai/pkg/fn"
)

// BatchSize is how many points are upserted per vector-store call.
const BatchSize = 200

// embedWorkers bounds concurrent embedding calls per page.
const embedWorkers = 4

// Fetcher pages through the upstream politician API.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) ([]map[string]any, error)
}

// Embedder computes record vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the slice of the vector store the sync needs.
type Store interface {
	UpsertBasic(ctx context.Context, points []semantic.BasicPoint) error
	UpsertDetail(ctx context.Context, points []semantic.DetailPoint) error
}

// GraphWriter is the affiliation-graph sink. nil disables graph writes.
type GraphWriter interface {
	SaveBatch(ctx context.Context, members []graph.Membership, candidacies []graph.Candidacy) error
}

// Progress is published after each page. Total is cumulative.
type Progress struct {
	Page  int `json:"page"`
	Total int `json:"total"`
}

// Notifier publishes sync progress. nil disables notifications.
type Notifier interface {
	Progress(ctx context.Context, p Progress)
	Done(ctx context.Context, total int)
}

// Syncer runs one full resync of both collections and the graph.
type Syncer struct {
	fetch   Fetcher
	embed   Embedder
	store   Store
	graph   GraphWriter
	notify  Notifier
	prepare fn.Stage[map[string]any, record]
	logger  *slog.Logger
}

// NewSyncer creates a Syncer. graph and notify may be nil.
func NewSyncer(fetch Fetcher, embed Embedder, store Store, gw GraphWriter, notify Notifier, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{fetch: fetch, embed: embed, store: store, graph: gw, notify: notify, logger: logger}
	s.prepare = fn.TracedStage("ingest.prepare", s.prepareRecord)
	return s
}

// record is one politician prepared for upsert.
type record struct {
	basic       semantic.BasicPoint
	detail      semantic.DetailPoint
	members     []graph.Membership
	candidacies []graph.Candidacy
}

// Run pages through the upstream until an empty page, embedding and
// upserting as it goes. Returns the number of politicians synced. Any
// upstream, embedding, or store failure aborts the run: a partial sync is
// acceptable to the query path (no transactional isolation is promised),
// and the next scheduled run converges.
func (s *Syncer) Run(ctx context.Context) (int, error) {
	total := 0
	var basics []semantic.BasicPoint
	var details []semantic.DetailPoint

	for page := 1; ; page++ {
		data, err := s.fetch.FetchPage(ctx, page)
		if err != nil {
			return total, err
		}
		if len(data) == 0 {
			break
		}

		results := fn.ParMapResult(data, embedWorkers, func(p map[string]any) fn.Result[record] {
			return s.prepare(ctx, p)
		})
		records, err := fn.Collect(results).Unwrap()
		if err != nil {
			return total, err
		}

		var members []graph.Membership
		var candidacies []graph.Candidacy
		for _, r := range records {
			basics = append(basics, r.basic)
			details = append(details, r.detail)
			members = append(members, r.members...)
			candidacies = append(candidacies, r.candidacies...)
			total++

			if len(basics) >= BatchSize {
				if err := s.store.UpsertBasic(ctx, basics); err != nil {
					return total, err
				}
				basics = basics[:0]
			}
			if len(details) >= BatchSize {
				if err := s.store.UpsertDetail(ctx, details); err != nil {
					return total, err
				}
				details = details[:0]
			}
		}

		if s.graph != nil {
			if err := s.graph.SaveBatch(ctx, members, candidacies); err != nil {
				return total, fmt.Errorf("ingest: graph batch page %d: %w", page, err)
			}
		}
		if s.notify != nil {
			s.notify.Progress(ctx, Progress{Page: page, Total: total})
		}
		s.logger.Info("ingest: page synced", "page", page, "records", len(data), "total", total)
	}

	if err := s.store.UpsertBasic(ctx, basics); err != nil {
		return total, err
	}
	if err := s.store.UpsertDetail(ctx, details); err != nil {
		return total, err
	}

	if s.notify != nil {
		s.notify.Done(ctx, total)
	}
	s.logger.Info("ingest: sync complete", "total", total)
	return total, nil
}

// prepareRecord embeds the three vectors for one record and assembles its
// upsert points and graph rows.
func (s *Syncer) prepareRecord(ctx context.Context, p map[string]any) fn.Result[record] {
	id := intField(p, "politicianId")
	if id == 0 {
		return fn.Errf[record]("ingest: record without politicianId")
	}
	name := stringField(p, "name")
	core := CorePayload(p)

	textVec, err := s.embed.Embed(ctx, EmbeddingText(name, core))
	if err != nil {
		return fn.Err[record](fmt.Errorf("ingest: embed text %d: %w", id, err))
	}
	nameVec, err := s.embed.Embed(ctx, name)
	if err != nil {
		return fn.Err[record](fmt.Errorf("ingest: embed name %d: %w", id, err))
	}
	detailVec, err := s.embed.Embed(ctx, EmbeddingText(name, p))
	if err != nil {
		return fn.Err[record](fmt.Errorf("ingest: embed detail %d: %w", id, err))
	}

	members, candidacies := GraphRecords(p)
	return fn.Ok(record{
		basic: semantic.BasicPoint{
			ID:         id,
			TextVector: textVec,
			NameVector: nameVec,
			Payload:    core,
		},
		detail: semantic.DetailPoint{
			ID:      id,
			Vector:  detailVec,
			Payload: DetailPayload(p),
		},
		members:     members,
		candidacies: candidacies,
	})
}
