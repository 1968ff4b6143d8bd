package ports

import (
	"context"

	"NewsBalancer/internal/domain"
)

// GenerationRequest is a single prompt sent to the text-generation backend.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Generator wraps the external text-generation service.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Model() string
}

// ArticleStore reads unprocessed articles and persists analysis results.
type ArticleStore interface {
	// FetchUnprocessed returns unprocessed articles oldest first; limit <= 0 means no cap.
	FetchUnprocessed(ctx context.Context, limit int) ([]domain.Article, error)
	// MarkProcessed stores the record together with the terminal state it implies.
	MarkProcessed(ctx context.Context, articleID string, record domain.AnalysisRecord) error
	Stats(ctx context.Context) (domain.ProcessingStats, error)
	// Reset moves processed articles back to unprocessed; no ids means all of them.
	Reset(ctx context.Context, ids ...string) (int64, error)
}

// Pacer enforces a minimum interval between successive operations.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Notifier publishes batch reports to an outbound channel.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.BatchReport) error
}
