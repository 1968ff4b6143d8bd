// Package prompts holds the prompt templates for every pipeline stage.
//
// A Set is plain data: stages receive it explicitly, so tests and
// configuration can substitute any template without touching stage code.
package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// Stage names a template slot.
type Stage string

const (
	StageRelevance     Stage = "relevance"
	StageResearch      Stage = "research"
	StageResearchRetry Stage = "research_retry"
	StageSynthesis     Stage = "synthesis"
	StageRewrite       Stage = "rewrite"
	StageProbe         Stage = "probe"
)

// Stages lists every slot a complete Set must fill.
var Stages = []Stage{
	StageRelevance,
	StageResearch,
	StageResearchRetry,
	StageSynthesis,
	StageRewrite,
	StageProbe,
}

// Data is the union of fields referenced by the templates.
type Data struct {
	Title        string
	Content      string
	Topic        string
	Summary      string
	OriginalText string
	Findings     string
	Analysis     string
	NoInfoMarker string
}

// Set maps stages to parsed templates.
type Set struct {
	templates map[Stage]*template.Template
}

// New parses raw templates; every stage in Stages must be present.
func New(raw map[Stage]string) (Set, error) {
	set := Set{templates: make(map[Stage]*template.Template, len(raw))}
	for _, stage := range Stages {
		text, ok := raw[stage]
		if !ok || strings.TrimSpace(text) == "" {
			return Set{}, fmt.Errorf("prompt template %q is missing", stage)
		}
		tmpl, err := template.New(string(stage)).Option("missingkey=error").Parse(text)
		if err != nil {
			return Set{}, fmt.Errorf("parse prompt %q: %w", stage, err)
		}
		set.templates[stage] = tmpl
	}
	return set, nil
}

// Default returns the built-in template set.
func Default() Set {
	set, err := New(defaults())
	if err != nil {
		panic(err)
	}
	return set
}

// WithOverrides returns the default set with the given stages replaced.
func WithOverrides(overrides map[string]string) (Set, error) {
	raw := defaults()
	for name, text := range overrides {
		stage := Stage(name)
		if _, known := raw[stage]; !known {
			return Set{}, fmt.Errorf("unknown prompt stage %q", name)
		}
		raw[stage] = text
	}
	return New(raw)
}

// Render executes the template for stage.
func (s Set) Render(stage Stage, data Data) (string, error) {
	tmpl, ok := s.templates[stage]
	if !ok {
		return "", fmt.Errorf("prompt template %q is not defined", stage)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", stage, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func defaults() map[Stage]string {
	return map[Stage]string{
		StageRelevance:     relevanceTemplate,
		StageResearch:      researchTemplate,
		StageResearchRetry: researchRetryTemplate,
		StageSynthesis:     synthesisTemplate,
		StageRewrite:       rewriteTemplate,
		StageProbe:         probeTemplate,
	}
}

const relevanceTemplate = `
You are an experienced domestic news journalist. Read the following article and answer briefly:

1. Is this a politically or socially contested issue in the country?
2. If yes, what kind of controversy is it?
3. If not, what is the category of the article (sports, entertainment, business, economic, routine)?

Note: metaphors such as "the snowball effect" or "power games" usually describe politics, not sports.

Answer briefly, in no more than 50 words.

Title: {{.Title}}
Content: {{.Content}}
`

const researchTemplate = `
Very important: perform a thorough web search on this topic now!

Search for:
1. "{{.Topic}}"
2. "{{.Topic}} controversy"
3. "{{.Topic}} opposing positions"

You must find:
- at least 3 different sources
- opposing views from the domestic press
- official statements, if there are any

Cite every source explicitly (for example "according to", "as reported by", "statement by").
If you do not find additional information, write explicitly "{{.NoInfoMarker}}".

Topic: {{.Topic}}
Initial information: {{.Summary}}
`

const researchRetryTemplate = `
Perform a deeper search on: {{.Topic}}. You must find real sources and cite each of them!
`

const synthesisTemplate = `
Write a balanced analysis that integrates the research:

Write a flowing, readable journalistic piece that includes all the important information from the research,
but without subheadings or division into sections. The piece must be continuous, flowing text that covers:

- an opening that presents the controversy
- the agreed facts
- the positions of all sides
- what is missing from the coverage
- the broader context
- a balanced conclusion

Important: do not write headings such as "Objective Headline", "Opening", "Agreed Facts" and so on.
Write continuous, flowing text.

Original text: {{.OriginalText}}
Research findings: {{.Findings}}
`

const rewriteTemplate = `
Turn this technical analysis into a flowing, readable journalistic article:

- pleasant journalistic language
- smooth transitions
- no technical expressions
- interesting for the average reader
- continuous, flowing text without subheadings or division into sections

Important: do not write headings such as "Objective Headline", "Opening", "Agreed Facts", "All Sides",
"Missing From the Coverage", "Broader Context", "Balanced Summary". Write continuous, flowing text.

Technical analysis: {{.Analysis}}
`

const probeTemplate = `
Search the web for what happened in the national news today.
`
