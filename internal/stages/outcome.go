// Package stages implements the four generation-backed steps of the
// analysis pipeline. Every stage reports an explicit outcome: the text to
// pass downstream plus, when the backend failed, a typed Failure whose
// placeholder text still lets the article reach a terminal state.
package stages

import (
	"fmt"

	"NewsBalancer/internal/ports"
)

// Name identifies a stage in outcomes and persisted records.
type Name string

const (
	NameRelevance Name = "relevance"
	NameResearch  Name = "research"
	NameSynthesis Name = "synthesis"
	NameRewrite   Name = "rewrite"
)

// FailureReason classifies why a stage fell back to a placeholder.
type FailureReason string

const (
	ReasonBackend FailureReason = "backend_error"
	ReasonPrompt  FailureReason = "prompt_error"
)

// Failure describes a stage that produced a placeholder instead of real output.
type Failure struct {
	Stage  Name
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s stage %s: %v", f.Stage, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the result of the synthesis and rewrite stages.
type Outcome struct {
	Text    string
	Failure *Failure
}

// Failed reports whether Text is a placeholder.
func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// Params are the sampling parameters of one stage.
type Params struct {
	MaxTokens   int
	Temperature float64
}

func (p Params) request(prompt string) ports.GenerationRequest {
	return ports.GenerationRequest{
		Prompt:      prompt,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
}
