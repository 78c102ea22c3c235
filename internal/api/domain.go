package api

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/courselens/internal/categories"
	"github.com/JaimeStill/courselens/internal/config"
	"github.com/JaimeStill/courselens/internal/courses"
	"github.com/JaimeStill/courselens/internal/delivery"
	"github.com/JaimeStill/courselens/internal/demand"
	"github.com/JaimeStill/courselens/internal/enrichment"
	"github.com/JaimeStill/courselens/internal/index"
	"github.com/JaimeStill/courselens/internal/jobs"
	"github.com/JaimeStill/courselens/internal/ranking"
	"github.com/JaimeStill/courselens/internal/sentiment"
)

// RetagJob names the full retag job and the lock that category change
// retags share with it.
const RetagJob = "retag"

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Index      *index.Postgres
	Courses    courses.System
	Categories categories.System
	Tagger     *categories.Tagger
	Enrichment *enrichment.Aggregator
	Demand     *demand.Tracker
	Ranking    *ranking.Engine
	Scheduler  *jobs.Scheduler
	Listener   *categories.Listener
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()
	cfg := runtime.Config
	logger := runtime.Logger

	idx := index.New(db, logger)

	coursesSystem := courses.New(db, logger, runtime.Pagination)
	categoriesSystem := categories.New(db, logger, runtime.Pagination)

	tagger := categories.NewTagger(
		categoriesSystem,
		categories.NewTagStore(db),
		idx,
		categories.TaggerConfig{
			Threshold: *cfg.Pipeline.TagThreshold,
			Workers:   cfg.Pipeline.TagWorkers,
		},
		logger,
	)

	aggregator := enrichment.New(
		enrichment.NewStore(db),
		sentiment.NewLexicon(),
		idx,
		enrichment.Config{Pseudocount: *cfg.Pipeline.Pseudocount},
		logger,
	)

	tracker := demand.NewTracker(
		demand.NewStore(db),
		idx,
		newDeliverer(&cfg.Delivery, logger),
		cfg.Delivery.BatchSize,
		logger,
	)

	engine := ranking.NewEngine(
		idx,
		ranking.NewStore(db),
		tracker,
		ranking.Config{
			Alpha:           *cfg.Pipeline.Alpha,
			Beta:            *cfg.Pipeline.Beta,
			CandidateFactor: cfg.Pipeline.CandidateFactor,
		},
		logger,
	)

	locker := jobs.NewAdvisoryLocker(db, "courselens", logger)
	scheduler := jobs.NewScheduler(
		runtime.Lifecycle,
		locker,
		runtime.Database,
		logger,
	)
	registerJobs(scheduler, &cfg.Jobs, aggregator, tagger, tracker)

	listener := categories.NewListener(
		runtime.Database.Dsn(),
		categories.NewLockedHandler(tagger, locker, RetagJob, logger),
		logger,
	)

	return &Domain{
		Index:      idx,
		Courses:    coursesSystem,
		Categories: categoriesSystem,
		Tagger:     tagger,
		Enrichment: aggregator,
		Demand:     tracker,
		Ranking:    engine,
		Scheduler:  scheduler,
		Listener:   listener,
	}
}

// Start runs the bootstrap passes once startup completes, then starts the
// category change listener and the job scheduler.
func (d *Domain) Start(runtime *Runtime) {
	lc := runtime.Lifecycle
	cfg := runtime.Config
	logger := runtime.Logger

	lc.Go(func(ctx context.Context) {
		lc.WaitForStartup()
		if ctx.Err() != nil {
			return
		}

		if runtime.Database.Ready() {
			d.bootstrap(ctx, cfg, logger)
		} else {
			logger.Warn("database not ready, skipping bootstrap")
		}

		lc.Go(d.Listener.Run)

		if cfg.Jobs.IsEnabled() {
			d.Scheduler.Start(cfg.Jobs.RunOnStart)
		}
	})
}

func (d *Domain) bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if err := d.Index.EnsureIndex(ctx); err != nil {
		logger.Error("ensure index failed", "error", err)
	}

	seeded, err := d.Demand.SeedKeywords(ctx, cfg.Keywords.Seed)
	if err != nil {
		logger.Error("seed keywords failed", "error", err)
	} else {
		logger.Info("keywords seeded", "added", seeded)
	}

	report, err := d.Scheduler.RunNow(ctx, RetagJob)
	if err != nil {
		logger.Error("initial retag failed", "error", err)
		return
	}
	logger.Info("initial retag complete", "report", report)
}

func registerJobs(
	s *jobs.Scheduler,
	cfg *config.JobsConfig,
	aggregator *enrichment.Aggregator,
	tagger *categories.Tagger,
	tracker *demand.Tracker,
) {
	intervals := cfg.Intervals()

	s.Register(jobs.Job{
		Name:     "enrich",
		Interval: intervals["enrich"],
		Run: func(ctx context.Context) (any, error) {
			return aggregator.Run(ctx)
		},
	})
	s.Register(jobs.Job{
		Name:     RetagJob,
		Interval: intervals["retag"],
		Run: func(ctx context.Context) (any, error) {
			return tagger.RetagAll(ctx)
		},
	})
	s.Register(jobs.Job{
		Name:     "demand",
		Interval: intervals["demand"],
		Run: func(ctx context.Context) (any, error) {
			return tracker.ProcessSearchRequests(ctx)
		},
	})
	s.Register(jobs.Job{
		Name:     "dispatch",
		Interval: intervals["dispatch"],
		Run: func(ctx context.Context) (any, error) {
			return tracker.DispatchNotifications(ctx)
		},
	})
}

func newDeliverer(cfg *config.DeliveryConfig, logger *slog.Logger) delivery.Deliverer {
	if cfg.WebhookURL == "" {
		return delivery.NewLog(logger)
	}
	return delivery.NewWebhook(delivery.WebhookConfig{
		URL:              cfg.WebhookURL,
		Timeout:          cfg.TimeoutDuration(),
		RatePerSecond:    cfg.RatePerSecond,
		Burst:            cfg.Burst,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerTimeout:   cfg.BreakerTimeoutDuration(),
	}, logger)
}
