package stages

import (
	"context"
	"fmt"

	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/textclean"
)

// Synthesizer merges the article and research findings into one narrative.
type Synthesizer struct {
	gen     ports.Generator
	prompts prompts.Set
	params  Params
	prefix  int
}

// NewSynthesizer wires the generator and templates.
func NewSynthesizer(gen ports.Generator, set prompts.Set, params Params, originalPrefix int) *Synthesizer {
	return &Synthesizer{gen: gen, prompts: set, params: params, prefix: originalPrefix}
}

// Synthesize produces the technical analysis.
func (s *Synthesizer) Synthesize(ctx context.Context, original, findings string) Outcome {
	return generate(ctx, s.gen, s.prompts, s.params, NameSynthesis, prompts.StageSynthesis, prompts.Data{
		OriginalText: textclean.Prefix(original, s.prefix),
		Findings:     findings,
	}, "Technical analysis failed")
}

// Rewriter turns the technical analysis into a reader-friendly article.
type Rewriter struct {
	gen     ports.Generator
	prompts prompts.Set
	params  Params
	labels  []string
}

// NewRewriter wires the generator, templates and the section labels to strip.
func NewRewriter(gen ports.Generator, set prompts.Set, params Params, sectionLabels []string) *Rewriter {
	return &Rewriter{gen: gen, prompts: set, params: params, labels: sectionLabels}
}

// Rewrite produces the final journalistic article.
func (r *Rewriter) Rewrite(ctx context.Context, analysis string) Outcome {
	out := generate(ctx, r.gen, r.prompts, r.params, NameRewrite, prompts.StageRewrite, prompts.Data{
		Analysis: analysis,
	}, "Journalistic writing failed")
	if out.Failed() {
		return out
	}

	// Keep the raw answer if stripping would leave nothing.
	if cleaned := textclean.StripStructure(out.Text, r.labels); cleaned != "" {
		out.Text = cleaned
	}
	return out
}

func generate(ctx context.Context, gen ports.Generator, set prompts.Set, params Params, name Name, stage prompts.Stage, data prompts.Data, failPrefix string) Outcome {
	prompt, err := set.Render(stage, data)
	if err != nil {
		f := &Failure{Stage: name, Reason: ReasonPrompt, Err: err}
		return Outcome{Text: fmt.Sprintf("%s: %v", failPrefix, err), Failure: f}
	}

	text, err := gen.Generate(ctx, params.request(prompt))
	if err != nil {
		f := &Failure{Stage: name, Reason: ReasonBackend, Err: err}
		return Outcome{Text: fmt.Sprintf("%s: %v", failPrefix, err), Failure: f}
	}

	return Outcome{Text: text}
}
