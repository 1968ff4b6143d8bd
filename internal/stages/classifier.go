package stages

import (
	"context"
	"fmt"

	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
	"NewsBalancer/internal/textclean"
)

// Verdict is the relevance stage outcome.
type Verdict struct {
	Relevant  bool
	Rationale string
	Failure   *Failure
}

// Classifier labels an article as contested-topic or not.
type Classifier struct {
	gen        ports.Generator
	prompts    prompts.Set
	params     Params
	prefix     int
	isRelevant RelevancePredicate
}

// NewClassifier wires the generator, templates and decision predicate.
func NewClassifier(gen ports.Generator, set prompts.Set, params Params, contentPrefix int, isRelevant RelevancePredicate) *Classifier {
	return &Classifier{
		gen:        gen,
		prompts:    set,
		params:     params,
		prefix:     contentPrefix,
		isRelevant: isRelevant,
	}
}

// Classify asks the backend for a short rationale and applies the predicate.
// A failed call counts as relevant so nothing is dropped on a transient error.
func (c *Classifier) Classify(ctx context.Context, title, content string) Verdict {
	prompt, err := c.prompts.Render(prompts.StageRelevance, prompts.Data{
		Title:   title,
		Content: textclean.Prefix(content, c.prefix),
	})
	if err != nil {
		return relevantOnFailure(&Failure{Stage: NameRelevance, Reason: ReasonPrompt, Err: err})
	}

	rationale, err := c.gen.Generate(ctx, c.params.request(prompt))
	if err != nil {
		return relevantOnFailure(&Failure{Stage: NameRelevance, Reason: ReasonBackend, Err: err})
	}

	return Verdict{
		Relevant:  c.isRelevant(rationale),
		Rationale: rationale,
	}
}

func relevantOnFailure(f *Failure) Verdict {
	return Verdict{
		Relevant:  true,
		Rationale: fmt.Sprintf("Error in checking relevance: %v", f.Err),
		Failure:   f,
	}
}
