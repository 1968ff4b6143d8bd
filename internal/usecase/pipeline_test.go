package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/infrastructure/storage"
	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/stages"
)

var fixedNow = time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC)

const citedFindings = "According to the ministry statement and as reported by two national outlets, " +
	"the draft law passed its first reading after a long debate in which opposition members objected."

// routingGenerator answers by the stage marker each test template starts with.
type routingGenerator struct {
	mu      sync.Mutex
	answer  func(stage, prompt string) (string, error)
	calls   map[string]int
	prompts []string
}

func newRoutingGenerator(answer func(stage, prompt string) (string, error)) *routingGenerator {
	return &routingGenerator{answer: answer, calls: map[string]int{}}
}

func (g *routingGenerator) Generate(_ context.Context, req ports.GenerationRequest) (string, error) {
	stage, _, _ := strings.Cut(req.Prompt, " ")

	g.mu.Lock()
	g.calls[stage]++
	g.prompts = append(g.prompts, req.Prompt)
	g.mu.Unlock()

	return g.answer(stage, req.Prompt)
}

func (g *routingGenerator) Model() string { return "test-model" }

func (g *routingGenerator) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// happyAnswers marks every title containing "sports" as not relevant.
func happyAnswers(stage, prompt string) (string, error) {
	switch stage {
	case "REL":
		if strings.Contains(prompt, "sports") {
			return "No. Category: sports.", nil
		}
		return "Yes, a contested political controversy.", nil
	case "RES", "RETRY":
		return citedFindings, nil
	case "SYN":
		return "Technical analysis of both sides.", nil
	case "REW":
		return "# Objective Headline\nA balanced article.", nil
	}
	return "", errors.New("unexpected stage " + stage)
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

type recordingNotifier struct {
	reports []domain.BatchReport
}

func (n *recordingNotifier) PublishReport(_ context.Context, report domain.BatchReport) error {
	n.reports = append(n.reports, report)
	return nil
}

// memoryStore is an in-process ArticleStore with injectable failures.
type memoryStore struct {
	articles []domain.Article
	records  map[string]domain.AnalysisRecord
	failMark map[string]error
	fetchErr error
}

var _ ports.ArticleStore = (*memoryStore)(nil)

func newMemoryStore(articles ...domain.Article) *memoryStore {
	return &memoryStore{articles: articles, records: map[string]domain.AnalysisRecord{}, failMark: map[string]error{}}
}

func (s *memoryStore) FetchUnprocessed(_ context.Context, limit int) ([]domain.Article, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []domain.Article
	for _, a := range s.articles {
		if a.State != domain.StateUnprocessed {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) MarkProcessed(_ context.Context, id string, record domain.AnalysisRecord) error {
	if err := s.failMark[id]; err != nil {
		return err
	}
	for i := range s.articles {
		if s.articles[i].ID == id {
			s.articles[i].State = record.State()
			s.records[id] = record
			return nil
		}
	}
	return errors.New("unknown article " + id)
}

func (s *memoryStore) Stats(context.Context) (domain.ProcessingStats, error) {
	var st domain.ProcessingStats
	for _, a := range s.articles {
		st.Total++
		switch a.State {
		case domain.StateUnprocessed:
			st.Unprocessed++
		case domain.StateProcessedRelevant:
			st.Relevant++
		case domain.StateProcessedNotRelevant:
			st.NotRelevant++
		}
	}
	return st, nil
}

func (s *memoryStore) Reset(_ context.Context, ids ...string) (int64, error) {
	var n int64
	for i := range s.articles {
		a := &s.articles[i]
		if !a.State.Terminal() {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, a.ID) {
			continue
		}
		a.State = domain.StateUnprocessed
		delete(s.records, a.ID)
		n++
	}
	return n, nil
}

func testPrompts(t *testing.T) prompts.Set {
	t.Helper()
	set, err := prompts.WithOverrides(map[string]string{
		"relevance":      "REL {{.Title}} | {{.Content}}",
		"research":       "RES {{.Topic}} | {{.Summary}}",
		"research_retry": "RETRY {{.Topic}}",
		"synthesis":      "SYN {{.OriginalText}} | {{.Findings}}",
		"rewrite":        "REW {{.Analysis}}",
		"probe":          "PROBE today",
	})
	require.NoError(t, err)
	return set
}

type pipelineOptions struct {
	store    ports.ArticleStore
	gen      ports.Generator
	pacer    ports.Pacer
	notifier ports.Notifier
}

func newTestPipeline(t *testing.T, opts pipelineOptions) *Pipeline {
	t.Helper()
	set := testPrompts(t)
	gate := stages.CitationQualityGate(stages.QualityRules{
		CitationIndicators: []string{"according to", "as reported by"},
		MinLength:          150,
		NoInfoMarker:       "no additional information found",
	})
	return NewPipeline(PipelineDeps{
		Store:        opts.store,
		Classifier:   stages.NewClassifier(opts.gen, set, stages.Params{MaxTokens: 200, Temperature: 0.1}, 2000, stages.KeywordRelevance([]string{"sports"})),
		Researcher:   stages.NewResearcher(opts.gen, set, stages.Params{MaxTokens: 1500, Temperature: 0.3}, 500, "no additional information found", gate),
		Synthesizer:  stages.NewSynthesizer(opts.gen, set, stages.Params{MaxTokens: 2000, Temperature: 0.3}, 2000),
		Rewriter:     stages.NewRewriter(opts.gen, set, stages.Params{MaxTokens: 2000, Temperature: 0.4}, []string{"Objective Headline"}),
		ArticlePacer: opts.pacer,
		Notifier:     opts.notifier,
		Model:        opts.gen.Model(),
		Now:          func() time.Time { return fixedNow },
	})
}

func article(id, title string) domain.Article {
	return domain.Article{ID: id, Title: title, Content: "<p>Body of " + title + "</p>"}
}

func TestAnalyzeNotRelevantStopsAfterOneCall(t *testing.T) {
	gen := newRoutingGenerator(happyAnswers)
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: gen})

	record, err := p.Analyze(context.Background(), article("1", "sports final"))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.total())
	assert.False(t, record.Relevant)
	assert.Equal(t, domain.StateProcessedNotRelevant, record.State())
	require.NotNil(t, record.Analysis)
	assert.Equal(t, domain.CategoryNonPolitical, record.Analysis.Category)
	assert.Equal(t, "No. Category: sports.", record.Analysis.Reason)
	assert.Equal(t, "test-model", record.ModelUsed)
	assert.Equal(t, fixedNow, record.ProcessedAt)
}

func TestAnalyzeRelevantRunsAllStages(t *testing.T) {
	gen := newRoutingGenerator(happyAnswers)
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: gen})

	record, err := p.Analyze(context.Background(), article("1", "Judicial reform vote"))
	require.NoError(t, err)

	assert.True(t, record.Relevant)
	assert.Equal(t, domain.StateProcessedRelevant, record.State())
	assert.NotEmpty(t, record.RelevanceRationale)
	assert.Equal(t, citedFindings, record.ResearchNotes)
	assert.Equal(t, "Technical analysis of both sides.", record.TechnicalAnalysis)
	assert.Equal(t, "A balanced article.", record.JournalisticArticle)
	assert.Empty(t, record.DegradedStages)
	assert.Equal(t, map[string]int{"REL": 1, "RES": 1, "SYN": 1, "REW": 1}, gen.calls)

	// Markup is stripped before the content reaches any prompt.
	for _, prompt := range gen.prompts {
		assert.NotContains(t, prompt, "<p>")
	}
}

func TestAnalyzeRecordsDegradedStages(t *testing.T) {
	gen := newRoutingGenerator(func(stage, prompt string) (string, error) {
		switch stage {
		case "REL":
			return "", errors.New("overloaded")
		case "SYN":
			return "", errors.New("timeout")
		}
		return happyAnswers(stage, prompt)
	})
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: gen})

	record, err := p.Analyze(context.Background(), article("1", "Budget dispute"))
	require.NoError(t, err)

	assert.True(t, record.Relevant)
	assert.Contains(t, record.RelevanceRationale, "Error in checking relevance")
	assert.Contains(t, record.TechnicalAnalysis, "Technical analysis failed")
	assert.Equal(t, "A balanced article.", record.JournalisticArticle)
	assert.Equal(t, []string{"relevance", "synthesis"}, record.DegradedStages)
}

func TestAnalyzeRetriesWeakResearch(t *testing.T) {
	gen := newRoutingGenerator(func(stage, prompt string) (string, error) {
		if stage == "RES" {
			return "Nothing much.", nil
		}
		return happyAnswers(stage, prompt)
	})
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: gen})

	record, err := p.Analyze(context.Background(), article("1", "Coalition crisis"))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls["RES"])
	assert.Equal(t, 1, gen.calls["RETRY"])
	assert.Equal(t, citedFindings, record.ResearchNotes)
}

func TestAnalyzeRecoversFromPanic(t *testing.T) {
	gen := newRoutingGenerator(func(stage, prompt string) (string, error) {
		panic("backend exploded")
	})
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: gen})

	_, err := p.Analyze(context.Background(), article("7", "anything"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "article 7")
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestRunBatchProcessesOldestFirst(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := storage.NewRepository(db, storage.DialectSQLite)
	require.NoError(t, repo.Migrate(ctx))

	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	for _, item := range []struct {
		title  string
		offset time.Duration
	}{
		{"third", 3 * time.Hour},
		{"first", 1 * time.Hour},
		{"second sports", 2 * time.Hour},
	} {
		_, err := repo.Insert(ctx, domain.Article{Title: item.title, Content: "body", CreatedAt: base.Add(item.offset)})
		require.NoError(t, err)
	}

	gen := newRoutingGenerator(happyAnswers)
	notifier := &recordingNotifier{}
	p := newTestPipeline(t, pipelineOptions{store: repo, gen: gen, notifier: notifier})

	report, err := p.RunBatch(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Relevant)
	assert.Equal(t, 1, report.NotRelevant)
	assert.Zero(t, report.Errored)
	assert.False(t, report.Interrupted)
	assert.NotEmpty(t, report.RunID)

	var relevanceOrder []string
	for _, prompt := range gen.prompts {
		if strings.HasPrefix(prompt, "REL ") {
			title, _, _ := strings.Cut(strings.TrimPrefix(prompt, "REL "), " |")
			relevanceOrder = append(relevanceOrder, title)
		}
	}
	assert.Equal(t, []string{"first", "second sports", "third"}, relevanceOrder)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStats{Total: 3, Relevant: 2, NotRelevant: 1}, stats)

	require.Len(t, notifier.reports, 1)
	assert.Equal(t, report, notifier.reports[0])
}

func TestRunBatchHonoursLimit(t *testing.T) {
	articles := make([]domain.Article, 10)
	for i := range articles {
		articles[i] = article(string(rune('a'+i)), "topic")
	}
	store := newMemoryStore(articles...)
	p := newTestPipeline(t, pipelineOptions{store: store, gen: newRoutingGenerator(happyAnswers)})

	report, err := p.RunBatch(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Unprocessed)
	assert.Equal(t, 3, stats.Relevant)
}

func TestRunBatchIsolatesArticleFailures(t *testing.T) {
	gen := newRoutingGenerator(func(stage, prompt string) (string, error) {
		if strings.Contains(prompt, "boom") {
			panic("unexpected shape")
		}
		return happyAnswers(stage, prompt)
	})
	store := newMemoryStore(article("1", "one"), article("2", "boom"), article("3", "three"), article("4", "four"))
	store.failMark["4"] = errors.New("disk full")
	p := newTestPipeline(t, pipelineOptions{store: store, gen: gen})

	report, err := p.RunBatch(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Errored)
	assert.Contains(t, store.records, "1")
	assert.Contains(t, store.records, "3")
	assert.NotContains(t, store.records, "2")
	assert.Equal(t, domain.StateUnprocessed, store.articles[1].State)
	assert.Equal(t, domain.StateUnprocessed, store.articles[3].State)
}

func TestRunBatchFetchError(t *testing.T) {
	store := newMemoryStore()
	store.fetchErr = errors.New("connection refused")
	notifier := &recordingNotifier{}
	p := newTestPipeline(t, pipelineOptions{store: store, gen: newRoutingGenerator(happyAnswers), notifier: notifier})

	_, err := p.RunBatch(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch unprocessed")
	assert.Empty(t, notifier.reports)
}

func TestRunBatchEmptyBacklogSkipsReport(t *testing.T) {
	notifier := &recordingNotifier{}
	p := newTestPipeline(t, pipelineOptions{store: newMemoryStore(), gen: newRoutingGenerator(happyAnswers), notifier: notifier})

	report, err := p.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, notifier.reports)
}

func TestRunBatchPacesEveryArticle(t *testing.T) {
	pacer := &countingPacer{}
	store := newMemoryStore(article("1", "a"), article("2", "b sports"), article("3", "c"))
	p := newTestPipeline(t, pipelineOptions{store: store, gen: newRoutingGenerator(happyAnswers), pacer: pacer})

	_, err := p.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, pacer.waits)
}

func TestRunBatchInterruptFinishesArticleInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := newRoutingGenerator(func(stage, prompt string) (string, error) {
		// Cancellation arrives while the first article is mid-chain.
		if stage == "RES" {
			cancel()
		}
		return happyAnswers(stage, prompt)
	})
	store := newMemoryStore(article("1", "first"), article("2", "second"), article("3", "third"))
	notifier := &recordingNotifier{}
	p := newTestPipeline(t, pipelineOptions{store: store, gen: gen, notifier: notifier})

	report, err := p.RunBatch(ctx, 0)
	require.NoError(t, err)

	assert.True(t, report.Interrupted)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Errored)

	record, ok := store.records["1"]
	require.True(t, ok)
	assert.Equal(t, "A balanced article.", record.JournalisticArticle)
	assert.Equal(t, domain.StateUnprocessed, store.articles[1].State)

	require.Len(t, notifier.reports, 1)
	assert.True(t, notifier.reports[0].Interrupted)
}
