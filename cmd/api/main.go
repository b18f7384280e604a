// Package main implements the politician QA API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/extract"
	"github.com/skorea6/llm-politician-ai/engine/graph"
	"github.com/skorea6/llm-politician-ai/engine/rag"
	"github.com/skorea6/llm-politician-ai/engine/resolve"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
	"github.com/skorea6/llm-politician-ai/pkg/metrics"
	"github.com/skorea6/llm-politician-ai/pkg/mid"
	"github.com/skorea6/llm-politician-ai/pkg/ollama"
	"github.com/skorea6/llm-politician-ai/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	QdrantURL  string
	OllamaURL  string
	EmbedModel string
	ChatModel  string
	Neo4jURL   string
	Neo4jUser  string
	Neo4jPass  string
	AIKey      string
	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", "paraphrase-multilingual"),
		ChatModel:  envOr("CHAT_MODEL", "llama3.1"),
		Neo4jURL:   os.Getenv("NEO4J_URL"),
		Neo4jUser:  envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:  envOr("NEO4J_PASS", "password"),
		AIKey:      os.Getenv("AI_SECRET_KEY"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Connect to Ollama (behind a circuit breaker) ---
	llmClient := ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.ChatModel)
	llm := &guardedLLM{
		client:  llmClient,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}

	// --- Connect to Neo4j (optional, enrichment only) ---
	opts := rag.DefaultOptions()
	var partyGraph rag.PartyEnricher
	if cfg.Neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(ctx)
		partyGraph = graph.New(driver)
	} else {
		opts.UseGraph = false
	}

	// --- Build answer pipeline ---
	reg := metrics.New()
	extractor := extract.New(llm, logger)
	resolver := resolve.New(vectorStore, llm, resolve.DefaultOptions(), logger)
	ragSvc := rag.New(llm, extractor, resolver, llm, partyGraph, opts, logger)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())
	mux.Handle("POST /answer", mid.Auth(cfg.AIKey)(handleAnswer(ragSvc, reg, logger)))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("politician-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// AnswerRequest is the JSON body for POST /answer.
type AnswerRequest struct {
	Query string `json:"query"`
}

func handleAnswer(ragSvc *rag.Service, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	latency := reg.Histogram("answer_duration_seconds", "End-to-end answer pipeline latency.", nil)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer latency.Since(start)

		var req AnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			reg.Counter(metrics.WithLabels("answer_requests_total", "outcome", "bad_request"), "Answer requests by outcome.").Inc()
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		stream, err := ragSvc.Answer(r.Context(), req.Query)
		if err != nil {
			writeAnswerError(w, reg, logger, err)
			return
		}
		reg.Counter(metrics.WithLabels("answer_requests_total", "outcome", "ok"), "Answer requests by outcome.").Inc()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for chunk := range stream {
			if chunk.Err != nil {
				// Headers are already out; log and end the stream.
				logger.Error("answer stream failed", "err", chunk.Err)
				return
			}
			if _, err := w.Write([]byte(chunk.Text)); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// writeAnswerError maps pipeline errors to responses. Soft outcomes get a
// fixed Korean message with 200 so clients render them as the answer text;
// validation failures get 400; everything else is a 500.
func writeAnswerError(w http.ResponseWriter, reg *metrics.Registry, logger *slog.Logger, err error) {
	if domain.IsSoftOutcome(err) {
		var msg, outcome string
		switch {
		case errors.Is(err, domain.ErrEmptyQuery):
			msg, outcome = "query가 없습니다.", "empty_query"
		case errors.Is(err, domain.ErrNoCandidates):
			msg, outcome = "관련 정치인을 찾지 못했습니다.", "no_candidates"
		case errors.Is(err, domain.ErrLowSimilarity):
			msg, outcome = "유사도 낮음: 관련 정치인을 찾지 못했습니다.", "low_similarity"
		}
		reg.Counter(metrics.WithLabels("answer_requests_total", "outcome", outcome), "Answer requests by outcome.").Inc()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(msg))
		return
	}
	if errors.Is(err, domain.ErrQueryTooLong) || errors.Is(err, domain.ErrQueryInjection) {
		reg.Counter(metrics.WithLabels("answer_requests_total", "outcome", "bad_request"), "Answer requests by outcome.").Inc()
		http.Error(w, `{"error":"invalid query"}`, http.StatusBadRequest)
		return
	}
	reg.Counter(metrics.WithLabels("answer_requests_total", "outcome", "error"), "Answer requests by outcome.").Inc()
	logger.Error("answer pipeline failed", "err", err)
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}

// --- Adapters ---

// guardedLLM wraps the Ollama client with a shared circuit breaker and
// adapts its stream chunks for the answer pipeline.
type guardedLLM struct {
	client  *ollama.Client
	breaker *resilience.Breaker
}

func (g *guardedLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		vec, err = g.client.Embed(ctx, text)
		return err
	})
	return vec, err
}

func (g *guardedLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var out string
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.client.Complete(ctx, prompt, maxTokens)
		return err
	})
	return out, err
}

func (g *guardedLLM) Stream(ctx context.Context, prompt string) (<-chan rag.Chunk, error) {
	var src <-chan ollama.Chunk
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		src, err = g.client.Stream(ctx, prompt)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(chan rag.Chunk)
	go func() {
		defer close(out)
		for chunk := range src {
			// The consumer may disconnect without draining; exit on
			// cancellation instead of blocking on the send forever.
			select {
			case out <- rag.Chunk{Text: chunk.Text, Err: chunk.Err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
