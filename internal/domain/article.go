package domain

import "time"

// Article is a news item read from the store for analysis.
type Article struct {
	ID        string
	Title     string
	URL       string
	Content   string
	CreatedAt time.Time
	State     ProcessingState
}

// ProcessingState enumerates the lifecycle of an article inside the store.
// The integer values are the ones persisted in the isprocessed column.
type ProcessingState int

const (
	StateUnprocessed          ProcessingState = 0
	StateProcessedRelevant    ProcessingState = 1
	StateProcessedNotRelevant ProcessingState = 2
)

func (s ProcessingState) String() string {
	switch s {
	case StateUnprocessed:
		return "unprocessed"
	case StateProcessedRelevant:
		return "processed_relevant"
	case StateProcessedNotRelevant:
		return "processed_not_relevant"
	default:
		return "unknown"
	}
}

// Terminal reports whether the pipeline never moves an article out of s.
func (s ProcessingState) Terminal() bool {
	return s == StateProcessedRelevant || s == StateProcessedNotRelevant
}

// CategoryNonPolitical labels articles rejected by the relevance check.
const CategoryNonPolitical = "non-political"

// RelevanceAnalysis is the payload kept for articles that are not relevant.
type RelevanceAnalysis struct {
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

// AnalysisRecord is persisted as JSON alongside the terminal state.
type AnalysisRecord struct {
	Relevant bool `json:"is_relevant"`

	Analysis *RelevanceAnalysis `json:"analysis,omitempty"`

	RelevanceRationale  string   `json:"relevance_rationale,omitempty"`
	ResearchNotes       string   `json:"research_notes,omitempty"`
	TechnicalAnalysis   string   `json:"technical_analysis,omitempty"`
	JournalisticArticle string   `json:"journalistic_article,omitempty"`
	DegradedStages      []string `json:"degraded_stages,omitempty"`

	ModelUsed   string    `json:"model_used"`
	ProcessedAt time.Time `json:"processed_at"`
}

// State maps the record shape to the terminal state it must be stored with.
func (r AnalysisRecord) State() ProcessingState {
	if r.Relevant {
		return StateProcessedRelevant
	}
	return StateProcessedNotRelevant
}

// NotRelevantRecord builds the record for an article rejected by the classifier.
func NotRelevantRecord(reason, model string, at time.Time) AnalysisRecord {
	return AnalysisRecord{
		Relevant: false,
		Analysis: &RelevanceAnalysis{
			Relevant: false,
			Reason:   reason,
			Category: CategoryNonPolitical,
		},
		ModelUsed:   model,
		ProcessedAt: at,
	}
}

// ResearchResult is the transient output of the research stage.
type ResearchResult struct {
	Text     string
	Passed   bool
	Attempts int
}

// ProcessingStats summarizes the store by processing state.
type ProcessingStats struct {
	Total       int
	Unprocessed int
	Relevant    int
	NotRelevant int
}

// Progress returns the processed share in percent.
func (s ProcessingStats) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Relevant+s.NotRelevant) / float64(s.Total) * 100
}

// BatchReport aggregates the outcome of one batch run.
type BatchReport struct {
	RunID       string
	Total       int
	Processed   int
	Relevant    int
	NotRelevant int
	Errored     int
	Interrupted bool
	Started     time.Time
	Finished    time.Time
}
