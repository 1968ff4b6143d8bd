package llm

import (
	"errors"
	"fmt"
	"strings"

	"NewsBalancer/internal/ports"
)

var (
	// ErrMissingCredentials is returned when a client is built without an API key.
	ErrMissingCredentials = errors.New("llm: missing api credentials")
	// ErrInvalidRequest is returned before any outbound call for malformed requests.
	ErrInvalidRequest = errors.New("llm: invalid generation request")
	// ErrEmptyResponse means the backend answered without any text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

func validate(req ports.GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidRequest)
	}
	if req.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidRequest, req.MaxTokens)
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrInvalidRequest, req.Temperature)
	}
	return nil
}
