package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/stages"
)

// ProbeConfig holds what the web-access probe needs besides the generator.
type ProbeConfig struct {
	Prompts       prompts.Set
	Params        stages.Params
	DenialPhrases []string
}

// Maintenance groups the operator commands that inspect or rewind the store.
type Maintenance struct {
	store  ports.ArticleStore
	gen    ports.Generator
	probe  ProbeConfig
	logger *slog.Logger
}

// NewMaintenance builds the operator command handler.
func NewMaintenance(store ports.ArticleStore, gen ports.Generator, probe ProbeConfig, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Maintenance{store: store, gen: gen, probe: probe, logger: logger}
}

// Stats reports how many articles sit in each processing state.
func (m *Maintenance) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return domain.ProcessingStats{}, fmt.Errorf("load stats: %w", err)
	}
	m.logger.Info("processing stats",
		"total", stats.Total,
		"unprocessed", stats.Unprocessed,
		"relevant", stats.Relevant,
		"not_relevant", stats.NotRelevant,
		"progress", fmt.Sprintf("%.1f%%", stats.Progress()))
	return stats, nil
}

// Reset returns processed articles to the queue; no ids means all of them.
func (m *Maintenance) Reset(ctx context.Context, ids ...string) (int64, error) {
	n, err := m.store.Reset(ctx, ids...)
	if err != nil {
		return 0, fmt.Errorf("reset articles: %w", err)
	}
	m.logger.Info("articles reset", "count", n, "scoped", len(ids) > 0)
	return n, nil
}

// Probe asks the backend whether it can reach live web content.
func (m *Maintenance) Probe(ctx context.Context) (bool, error) {
	if m.gen == nil {
		return false, fmt.Errorf("probe: no generator configured")
	}
	ok, err := stages.ProbeWebAccess(ctx, m.gen, m.probe.Prompts, m.probe.Params, m.probe.DenialPhrases)
	if err != nil {
		return false, err
	}
	if ok {
		m.logger.Info("backend reports web access", "model", m.gen.Model())
	} else {
		m.logger.Warn("backend has no web access, research will rely on model knowledge", "model", m.gen.Model())
	}
	return ok, nil
}
