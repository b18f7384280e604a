// Command ingest periodically resyncs the politician collections from the
// upstream API into Qdrant and Neo4j, announcing progress over NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/skorea6/llm-politician-ai/engine/graph"
	"github.com/skorea6/llm-politician-ai/engine/ingest"
	"github.com/skorea6/llm-politician-ai/engine/semantic"
	"github.com/skorea6/llm-politician-ai/pkg/metrics"
	"github.com/skorea6/llm-politician-ai/pkg/natsutil"
	"github.com/skorea6/llm-politician-ai/pkg/ollama"
)

// NATS subjects for sync lifecycle events.
const (
	SubjectProgress = "politician.sync.progress"
	SubjectDone     = "politician.sync.done"
	SubjectTrigger  = "politician.sync.trigger"
)

var met = metrics.New()

var (
	mRunsTotal   = func(outcome string) *metrics.Counter { return met.Counter(metrics.WithLabels("politician_sync_runs_total", "outcome", outcome), "Sync runs by outcome") }
	mRecords     = met.Counter("politician_sync_records_total", "Politicians synced across all runs")
	mLastSuccess = met.Gauge("politician_sync_last_success_timestamp", "Epoch of last successful sync")
	mRunDur      = met.Histogram("politician_sync_duration_seconds", "Full sync run time", []float64{1, 5, 15, 60, 300, 900, 1800, 3600})
)

func main() {
	var (
		upstreamURL = flag.String("upstream", "http://localhost:3000/api/politicians", "upstream politician API URL")
		upstreamRPS = flag.Float64("rps", 2, "upstream request rate limit per second")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		embedModel  = flag.String("model", "paraphrase-multilingual", "Ollama embedding model")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		neo4jURL    = flag.String("neo4j", "", "Neo4j bolt URL (empty disables graph writes)")
		neo4jUser   = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", "password", "Neo4j password")
		natsURL     = flag.String("nats", "", "NATS URL (empty disables sync events)")
		interval    = flag.Duration("interval", 24*time.Hour, "resync interval")
		metricsPort = flag.Int("metrics-port", 9091, "metrics HTTP port")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", *metricsPort), mux); err != nil {
			log.Error("metrics server failed", "error", err)
		}
	}()

	// Connect Qdrant
	vs, err := semantic.New(*qdrantAddr)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vs.Close()
	if err := vs.EnsureCollections(ctx); err != nil {
		log.Error("qdrant ensure collections failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Qdrant")

	// Ollama embedder (chat model unused here)
	embedder := ollama.New(*ollamaURL, *embedModel, "")
	log.Info("using Ollama embeddings", "model", *embedModel)

	// Neo4j (optional)
	var gw ingest.GraphWriter
	if *neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
		if err != nil {
			log.Error("neo4j connect failed", "error", err)
			os.Exit(1)
		}
		defer driver.Close(ctx)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Error("neo4j verify failed", "error", err)
			os.Exit(1)
		}
		gw = graph.New(driver)
		log.Info("connected to Neo4j")
	}

	// NATS (optional): progress events out, manual triggers in.
	var notify ingest.Notifier
	trigger := make(chan struct{}, 1)
	if *natsURL != "" {
		nc, err := nats.Connect(*natsURL, nats.Name("politician-ingest"))
		if err != nil {
			log.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		notify = &natsNotifier{nc: nc, logger: log}

		sub, err := natsutil.Subscribe(nc, SubjectTrigger, func(_ context.Context, _ struct{}) {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
		if err != nil {
			log.Error("nats subscribe failed", "error", err)
			os.Exit(1)
		}
		defer sub.Unsubscribe()
		log.Info("connected to NATS", "trigger", SubjectTrigger)
	}

	fetcher := ingest.NewClient(*upstreamURL, *upstreamRPS)
	syncer := ingest.NewSyncer(fetcher, embedder, vs, gw, notify, log)

	runOnce := func() {
		start := time.Now()
		total, err := syncer.Run(ctx)
		mRunDur.Since(start)
		mRecords.Add(int64(total))
		if err != nil {
			mRunsTotal("error").Inc()
			log.Error("sync failed", "synced", total, "error", err)
			return
		}
		mRunsTotal("ok").Inc()
		mLastSuccess.Set(time.Now().Unix())
		log.Info("sync complete", "synced", total, "took", time.Since(start))
	}

	// Initial sync, then on schedule or trigger.
	runOnce()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			runOnce()
		case <-trigger:
			log.Info("manual sync triggered")
			runOnce()
		}
	}
}

// natsNotifier publishes sync lifecycle events. Publish failures are logged
// and never interrupt the sync.
type natsNotifier struct {
	nc     *nats.Conn
	logger *slog.Logger
}

func (n *natsNotifier) Progress(ctx context.Context, p ingest.Progress) {
	if err := natsutil.Publish(ctx, n.nc, SubjectProgress, p); err != nil {
		n.logger.Warn("progress publish failed", "error", err)
	}
}

func (n *natsNotifier) Done(ctx context.Context, total int) {
	if err := natsutil.Publish(ctx, n.nc, SubjectDone, map[string]int{"total": total}); err != nil {
		n.logger.Warn("done publish failed", "error", err)
	}
}
