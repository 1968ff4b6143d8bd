package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"NewsBalancer/internal/config"
	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/infrastructure/llm"
	"NewsBalancer/internal/infrastructure/storage"
	"NewsBalancer/internal/infrastructure/telegram"
	"NewsBalancer/internal/logging"
	"NewsBalancer/internal/pacing"
	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/stages"
	"NewsBalancer/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	db          *sql.DB
	repo        *storage.Repository
	pipeline    *usecase.Pipeline
	maintenance *usecase.Maintenance
	logger      *slog.Logger
}

// New validates the configuration, opens the store and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	set, err := prompts.WithOverrides(cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	dialect := storage.Dialect(cfg.Database.Driver)
	db, err := storage.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(db, dialect)

	backend, err := llm.NewFromConfig(cfg.Generation, baseLogger.With("component", "llm"))
	if err != nil {
		db.Close()
		return nil, err
	}
	gen := llm.NewPaced(backend, pacing.NewInterval(cfg.Pacing.CallInterval))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	h := cfg.Heuristics
	gate := stages.CitationQualityGate(stages.QualityRules{
		CitationIndicators: h.CitationIndicators,
		MinLength:          h.MinResearchLength,
		NoInfoMarker:       h.NoInfoMarker,
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:        repo,
		Classifier:   stages.NewClassifier(gen, set, params(cfg.Stages.Relevance), cfg.Limits.RelevancePrefix, stages.KeywordRelevance(h.NonRelevantKeywords)),
		Researcher:   stages.NewResearcher(gen, set, params(cfg.Stages.Research), cfg.Limits.SummaryPrefix, h.NoInfoMarker, gate),
		Synthesizer:  stages.NewSynthesizer(gen, set, params(cfg.Stages.Synthesis), cfg.Limits.SynthesisPrefix),
		Rewriter:     stages.NewRewriter(gen, set, params(cfg.Stages.Rewrite), h.SectionLabels),
		ArticlePacer: pacing.NewInterval(cfg.Pacing.ArticleInterval),
		Notifier:     notifier,
		Model:        gen.Model(),
		Logger:       baseLogger.With("component", "pipeline"),
	})

	maintenance := usecase.NewMaintenance(repo, gen, usecase.ProbeConfig{
		Prompts:       set,
		Params:        params(cfg.Stages.Probe),
		DenialPhrases: h.AccessDenialPhrases,
	}, baseLogger.With("component", "maintenance"))

	return &Application{
		cfg:         cfg,
		db:          db,
		repo:        repo,
		pipeline:    pipeline,
		maintenance: maintenance,
		logger:      baseLogger,
	}, nil
}

// Run processes up to limit unprocessed articles; limit <= 0 drains the backlog.
// Store stats are logged before and after the batch. With checkAccess set the
// backend is first asked whether it can reach the web; a denial or a failed
// check only logs a warning.
func (a *Application) Run(ctx context.Context, limit int, checkAccess bool) (domain.BatchReport, error) {
	if checkAccess {
		if _, err := a.maintenance.Probe(ctx); err != nil {
			a.logger.Warn("web access check failed", "error", err)
		}
	}
	a.logStats(ctx)

	report, err := a.pipeline.RunBatch(ctx, limit)
	if err != nil {
		return report, err
	}

	a.logStats(context.WithoutCancel(ctx))
	return report, nil
}

func (a *Application) logStats(ctx context.Context) {
	if _, err := a.maintenance.Stats(ctx); err != nil {
		a.logger.Warn("stats unavailable", "error", err)
	}
}

// Stats reports processing progress.
func (a *Application) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	return a.maintenance.Stats(ctx)
}

// Reset requeues processed articles.
func (a *Application) Reset(ctx context.Context, ids ...string) (int64, error) {
	return a.maintenance.Reset(ctx, ids...)
}

// Probe checks whether the backend can reach live web content.
func (a *Application) Probe(ctx context.Context) (bool, error) {
	return a.maintenance.Probe(ctx)
}

// Migrate creates the article table when it does not exist yet.
func (a *Application) Migrate(ctx context.Context) error {
	if err := a.repo.Migrate(ctx); err != nil {
		return err
	}
	a.logger.Info("schema ready", "driver", a.cfg.Database.Driver)
	return nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

func params(sc config.StageConfig) stages.Params {
	return stages.Params{MaxTokens: sc.MaxTokens, Temperature: sc.Temperature}
}
