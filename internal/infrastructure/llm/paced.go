package llm

import (
	"context"

	"NewsBalancer/internal/ports"
)

// Paced delays every call on the wrapped generator until the pacer allows it.
type Paced struct {
	next  ports.Generator
	pacer ports.Pacer
}

var _ ports.Generator = (*Paced)(nil)

// NewPaced wraps next with pacer; a nil pacer leaves calls unpaced.
func NewPaced(next ports.Generator, pacer ports.Pacer) *Paced {
	return &Paced{next: next, pacer: pacer}
}

// Model delegates to the wrapped generator.
func (p *Paced) Model() string {
	return p.next.Model()
}

// Generate waits for the next slot and forwards the request.
func (p *Paced) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if p.pacer != nil {
		if err := p.pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	return p.next.Generate(ctx, req)
}

