// Command pytanis-sync pulls one conference event's submissions, speakers,
// reviews, and taxonomy from the upstream API and writes the tabular
// projections (internal/projections) to a JSON file. Dependencies are built
// by hand here; there is no DI container.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/PioneersHub/pytanis-go/internal/cache"
	"github.com/PioneersHub/pytanis-go/internal/fetcher"
	"github.com/PioneersHub/pytanis-go/internal/projections"
	"github.com/PioneersHub/pytanis-go/internal/ratelimit"
	"github.com/PioneersHub/pytanis-go/internal/upstream"
	"github.com/PioneersHub/pytanis-go/pkg/confconfig"
	"github.com/PioneersHub/pytanis-go/pkg/logger"
	"github.com/PioneersHub/pytanis-go/pkg/resilience"
	"github.com/PioneersHub/pytanis-go/pkg/telemetry"
)

type syncOutput struct {
	Proposals     []projections.ProposalRow `json:"proposals"`
	Speakers      []projections.SpeakerRow  `json:"speakers"`
	Reviews       []projections.ReviewRow   `json:"reviews"`
	TalksAliased  bool                      `json:"talks_aliased"`
	ReviewerMeans map[string]float64        `json:"reviewer_means"`
}

func main() {
	event := flag.String("event", "", "conference event slug (required)")
	outPath := flag.String("out", "", "output JSON file path; defaults to stdout")
	logLevel := flag.String("log-level", "", "override PYTANIS_LOG_LEVEL")
	flag.Parse()

	if *event == "" {
		fmt.Fprintln(os.Stderr, "pytanis-sync: -event is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *event, *outPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "pytanis-sync: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, event, outPath, logLevelOverride string) error {
	cfg, err := confconfig.FromEnv()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.NewDefaultLogger()
	level := cfg.Logging.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	log.SetLevel(level)

	breakerMetrics, err := resilience.NewOTelMetricsCollector(ctx, telemetry.Meter(nil))
	if err != nil {
		return fmt.Errorf("building circuit breaker metrics: %w", err)
	}

	f := fetcher.New(fetcher.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		Token:         cfg.Upstream.Token,
		Version:       cfg.Upstream.Version,
		VersionHeader: cfg.Upstream.VersionHeader,
		Timeout:       cfg.Upstream.Timeout,
		RateLimit: ratelimit.Config{
			RatePerSecond: cfg.RateLimit.RatePerSecond,
			Burst:         cfg.RateLimit.Burst,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Name:    "upstream-api",
			Metrics: breakerMetrics,
		},
	}, log)

	c := cache.New(cache.WithSoftLimit(5000), cache.WithPrepopulationThreshold(50))
	client := upstream.New(f, c, log)

	count, proposals, err := client.Submissions(ctx, event, url.Values{"questions": {"all"}})
	if err != nil {
		return fmt.Errorf("fetching submissions: %w", err)
	}
	log.Info("fetched submissions", "event", event, "count", count)

	_, speakers, err := client.Speakers(ctx, event, nil)
	if err != nil {
		return fmt.Errorf("fetching speakers: %w", err)
	}

	_, reviews, err := client.Reviews(ctx, event, nil)
	if err != nil {
		log.Warn("fetching reviews failed, continuing without review scores", "error", err)
		reviews = nil
	}

	reviewRows := projections.ReviewTable(reviews)
	out := syncOutput{
		Proposals:     projections.ProposalTable(proposals),
		Speakers:      projections.SpeakerTable(speakers),
		Reviews:       reviewRows,
		TalksAliased:  client.Aliased(),
		ReviewerMeans: projections.ReviewerMeans(reviewRows),
	}

	return writeOutput(out, outPath)
}

func writeOutput(out syncOutput, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
