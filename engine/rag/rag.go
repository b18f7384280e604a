// Package rag orchestrates the answer pipeline: embed the query, extract
// candidate names, resolve candidates against the vector store, rerank
// with election-history bonus, gate on the similarity threshold, and
// stream a grounded generation. Soft outcomes (empty query, nothing found,
// low similarity) surface as domain sentinel errors; infrastructure
// failures propagate untouched.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/rank"
	"github.com/skorea6/llm-politician-ai/engine/resolve"
)

// Chunk is one streamed piece of the generated answer. A non-nil Err ends
// the stream and marks it failed.
type Chunk struct {
	Text string
	Err  error
}

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NameExtractor pulls person names from the query text. It never fails:
// malformed model output means no names.
type NameExtractor interface {
	Names(ctx context.Context, query string, maxNames int) []string
}

// CandidateResolver runs the staged retrieval.
type CandidateResolver interface {
	Resolve(ctx context.Context, queryVec []float32, names []string) ([]resolve.Candidate, error)
}

// Generator streams grounded answer text.
type Generator interface {
	Stream(ctx context.Context, prompt string) (<-chan Chunk, error)
}

// PartyEnricher optionally supplies same-party politician names for extra
// grounding context. Failures are skipped, never fatal.
type PartyEnricher interface {
	PartyPeers(ctx context.Context, partyName string, excludeID int64, limit int) ([]string, error)
}

// Options configures the pipeline.
type Options struct {
	MaxNames      int
	SearchTimeout time.Duration
	UseGraph      bool
	PeerLimit     int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxNames:      3,
		SearchTimeout: 10 * time.Second,
		UseGraph:      true,
		PeerLimit:     5,
	}
}

// Service is the answer pipeline.
type Service struct {
	embed    Embedder
	names    NameExtractor
	resolver CandidateResolver
	gen      Generator
	graph    PartyEnricher
	opts     Options
	logger   *slog.Logger
}

// New creates a Service. graph may be nil to disable enrichment.
func New(embed Embedder, names NameExtractor, resolver CandidateResolver, gen Generator, graph PartyEnricher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embed:    embed,
		names:    names,
		resolver: resolver,
		gen:      gen,
		graph:    graph,
		opts:     opts,
		logger:   logger,
	}
}

// Answer runs the pipeline for one query and returns the stream of answer
// chunks. The channel is closed when generation completes or ctx is
// cancelled. Policy is single-best: one politician record grounds the
// answer, or the query is rejected.
func (s *Service) Answer(ctx context.Context, query string) (<-chan Chunk, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}

	queryVec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}

	names := s.names.Names(ctx, query, s.opts.MaxNames)
	s.logger.Info("rag: names extracted", "count", len(names))

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	candidates, err := s.resolver.Resolve(searchCtx, queryVec, names)
	if err != nil {
		return nil, err
	}

	scored := rank.Rank(candidates)
	best, err := rank.GateBest(scored)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rag: candidate accepted",
		"id", best.Hit.ID,
		"similarity", best.Hit.Score,
		"bonus", best.Bonus,
		"final", best.Final,
	)

	var peersNote string
	if s.opts.UseGraph && s.graph != nil {
		peersNote = s.partyPeersNote(ctx, best)
	}

	prompt := BuildPrompt(query, []map[string]any{best.Full}, peersNote)
	return s.gen.Stream(ctx, prompt)
}

// partyPeersNote builds the optional same-party context line. Any failure
// is logged and skipped.
func (s *Service) partyPeersNote(ctx context.Context, best rank.Scored) string {
	party, ok := best.Full["politicalParty"].(map[string]any)
	if !ok {
		return ""
	}
	partyName, ok := party["name"].(string)
	if !ok || partyName == "" {
		return ""
	}

	peers, err := s.graph.PartyPeers(ctx, partyName, best.Hit.ID, s.opts.PeerLimit)
	if err != nil {
		s.logger.Warn("rag: party enrichment failed, continuing without", "err", err)
		return ""
	}
	return formatPeersNote(partyName, peers)
}
