package stages

import (
	"context"
	"fmt"
	"strings"

	"NewsBalancer/internal/ports"
	"NewsBalancer/internal/prompts"
)

// ProbeWebAccess asks the backend to look up today's news and reports
// whether the answer admits it cannot reach the web.
func ProbeWebAccess(ctx context.Context, gen ports.Generator, set prompts.Set, params Params, denials []string) (bool, error) {
	prompt, err := set.Render(prompts.StageProbe, prompts.Data{})
	if err != nil {
		return false, err
	}

	answer, err := gen.Generate(ctx, params.request(prompt))
	if err != nil {
		return false, fmt.Errorf("probe web access: %w", err)
	}

	return !containsAny(strings.ToLower(answer), lowerAll(denials)), nil
}
