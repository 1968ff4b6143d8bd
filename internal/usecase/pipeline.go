package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/stages"
	"NewsBalancer/internal/textclean"
)

const notifyTimeout = 10 * time.Second

// Phase names the orchestrator states logged for every article.
type Phase string

const (
	PhaseClassifying    Phase = "classifying_relevance"
	PhaseResearching    Phase = "researching"
	PhaseSynthesizing   Phase = "synthesizing"
	PhaseRewriting      Phase = "rewriting"
	PhaseDoneRelevant   Phase = "done_relevant"
	PhaseDoneIrrelevant Phase = "done_not_relevant"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Store        ports.ArticleStore
	Classifier   *stages.Classifier
	Researcher   *stages.Researcher
	Synthesizer  *stages.Synthesizer
	Rewriter     *stages.Rewriter
	ArticlePacer ports.Pacer
	Notifier     ports.Notifier
	Model        string
	Logger       *slog.Logger
	Now          func() time.Time
}

// Pipeline implements the four-stage article analysis workflow.
type Pipeline struct {
	store        ports.ArticleStore
	classifier   *stages.Classifier
	researcher   *stages.Researcher
	synthesizer  *stages.Synthesizer
	rewriter     *stages.Rewriter
	articlePacer ports.Pacer
	notifier     ports.Notifier
	model        string
	logger       *slog.Logger
	now          func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		store:        deps.Store,
		classifier:   deps.Classifier,
		researcher:   deps.Researcher,
		synthesizer:  deps.Synthesizer,
		rewriter:     deps.Rewriter,
		articlePacer: deps.ArticlePacer,
		notifier:     deps.Notifier,
		model:        deps.Model,
		logger:       logger,
		now:          now,
	}
}

// Analyze runs the stage chain for one article and returns its record.
// Stage failures are folded into placeholder text; only a panic inside the
// chain surfaces as an error.
func (p *Pipeline) Analyze(ctx context.Context, article domain.Article) (record domain.AnalysisRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyze article %s: panic: %v", article.ID, r)
		}
	}()

	logger := p.logger.With("article_id", article.ID)
	content := textclean.PlainText(article.Content)

	logger.Debug("phase", "phase", PhaseClassifying)
	verdict := p.classifier.Classify(ctx, article.Title, content)
	if verdict.Failure != nil {
		logger.Warn("relevance check failed, treating as relevant", "error", verdict.Failure)
	}

	if !verdict.Relevant {
		logger.Info("article not relevant", "phase", PhaseDoneIrrelevant, "reason", verdict.Rationale)
		return domain.NotRelevantRecord(verdict.Rationale, p.model, p.now()), nil
	}
	logger.Info("article relevant", "reason", verdict.Rationale)

	var degraded []string
	if verdict.Failure != nil {
		degraded = append(degraded, string(stages.NameRelevance))
	}

	logger.Debug("phase", "phase", PhaseResearching)
	research, failure := p.researcher.Research(ctx, article.Title, content)
	if failure != nil {
		logger.Warn("research failed", "error", failure)
		degraded = append(degraded, string(stages.NameResearch))
	}
	logger.Info("research completed", "chars", len([]rune(research.Text)), "attempts", research.Attempts, "passed_gate", research.Passed)

	logger.Debug("phase", "phase", PhaseSynthesizing)
	analysis := p.synthesizer.Synthesize(ctx, content, research.Text)
	if analysis.Failed() {
		logger.Warn("synthesis failed", "error", analysis.Failure)
		degraded = append(degraded, string(stages.NameSynthesis))
	}

	logger.Debug("phase", "phase", PhaseRewriting)
	final := p.rewriter.Rewrite(ctx, analysis.Text)
	if final.Failed() {
		logger.Warn("rewrite failed", "error", final.Failure)
		degraded = append(degraded, string(stages.NameRewrite))
	}

	logger.Info("analysis completed", "phase", PhaseDoneRelevant, "degraded_stages", degraded)
	return domain.AnalysisRecord{
		Relevant:            true,
		RelevanceRationale:  verdict.Rationale,
		ResearchNotes:       research.Text,
		TechnicalAnalysis:   analysis.Text,
		JournalisticArticle: final.Text,
		DegradedStages:      degraded,
		ModelUsed:           p.model,
		ProcessedAt:         p.now(),
	}, nil
}

// ProcessArticle analyzes one article and persists the record with its terminal state.
func (p *Pipeline) ProcessArticle(ctx context.Context, article domain.Article) (domain.AnalysisRecord, error) {
	record, err := p.Analyze(ctx, article)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	if err := p.store.MarkProcessed(ctx, article.ID, record); err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("persist article %s: %w", article.ID, err)
	}
	return record, nil
}

// RunBatch processes unprocessed articles one at a time, oldest first.
// limit <= 0 processes the whole backlog. Per-article failures are counted
// and never abort the batch. Cancelling ctx stops the batch after the
// article in flight completes.
func (p *Pipeline) RunBatch(ctx context.Context, limit int) (domain.BatchReport, error) {
	report := domain.BatchReport{RunID: uuid.NewString(), Started: p.now()}
	logger := p.logger.With("run_id", report.RunID)

	articles, err := p.store.FetchUnprocessed(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("fetch unprocessed: %w", err)
	}
	report.Total = len(articles)

	if limit > 0 {
		logger.Info("batch started", "articles", len(articles), "limit", limit)
	} else {
		logger.Info("batch started", "articles", len(articles))
	}

	for i, article := range articles {
		if !p.waitTurn(ctx) {
			report.Interrupted = true
			logger.Warn("batch interrupted", "remaining", len(articles)-i)
			break
		}

		logger.Info("processing article",
			"position", fmt.Sprintf("%d/%d", i+1, len(articles)),
			"article_id", article.ID,
			"title", textclean.Prefix(article.Title, 60),
			"url", article.URL,
			"content_chars", len([]rune(article.Content)))

		record, err := p.ProcessArticle(context.WithoutCancel(ctx), article)
		if err != nil {
			report.Errored++
			logger.Error("article failed", "article_id", article.ID, "error", err)
			continue
		}

		report.Processed++
		if record.Relevant {
			report.Relevant++
		} else {
			report.NotRelevant++
		}
		logger.Info("article stored", "article_id", article.ID, "state", record.State().String())
	}

	report.Finished = p.now()
	logger.Info("batch finished",
		"processed", report.Processed,
		"relevant", report.Relevant,
		"not_relevant", report.NotRelevant,
		"errors", report.Errored,
		"total", report.Total,
		"interrupted", report.Interrupted)

	p.publish(ctx, logger, report)
	return report, nil
}

func (p *Pipeline) waitTurn(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if p.articlePacer == nil {
		return true
	}
	return p.articlePacer.Wait(ctx) == nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, report domain.BatchReport) {
	if p.notifier == nil || report.Total == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := p.notifier.PublishReport(ctx, report); err != nil {
		logger.Warn("publish report failed", "error", err)
	}
}
