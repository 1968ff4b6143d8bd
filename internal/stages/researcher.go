package stages

import (
	"context"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/textclean"
)

// ResearchFailedText replaces findings when the backend call fails.
const ResearchFailedText = "Research failed"

// Researcher gathers sourced findings for an article topic.
type Researcher struct {
	gen          ports.Generator
	prompts      prompts.Set
	params       Params
	prefix       int
	noInfoMarker string
	passes       QualityGate
}

// NewResearcher wires the generator, templates and quality gate.
func NewResearcher(gen ports.Generator, set prompts.Set, params Params, summaryPrefix int, noInfoMarker string, gate QualityGate) *Researcher {
	return &Researcher{
		gen:          gen,
		prompts:      set,
		params:       params,
		prefix:       summaryPrefix,
		noInfoMarker: noInfoMarker,
		passes:       gate,
	}
}

// Research requests findings and retries once with a stronger prompt when
// the first answer fails the quality gate. The retry is accepted as is.
func (r *Researcher) Research(ctx context.Context, topic, content string) (domain.ResearchResult, *Failure) {
	data := prompts.Data{
		Topic:        topic,
		Summary:      textclean.Prefix(content, r.prefix),
		NoInfoMarker: r.noInfoMarker,
	}

	findings, failure := r.attempt(ctx, prompts.StageResearch, data)
	if failure != nil {
		return domain.ResearchResult{Text: ResearchFailedText, Attempts: 1}, failure
	}
	if r.passes(findings) {
		return domain.ResearchResult{Text: findings, Passed: true, Attempts: 1}, nil
	}

	retried, failure := r.attempt(ctx, prompts.StageResearchRetry, data)
	if failure != nil {
		return domain.ResearchResult{Text: ResearchFailedText, Attempts: 2}, failure
	}
	return domain.ResearchResult{Text: retried, Attempts: 2}, nil
}

func (r *Researcher) attempt(ctx context.Context, stage prompts.Stage, data prompts.Data) (string, *Failure) {
	prompt, err := r.prompts.Render(stage, data)
	if err != nil {
		return "", &Failure{Stage: NameResearch, Reason: ReasonPrompt, Err: err}
	}
	text, err := r.gen.Generate(ctx, r.params.request(prompt))
	if err != nil {
		return "", &Failure{Stage: NameResearch, Reason: ReasonBackend, Err: err}
	}
	return text, nil
}
