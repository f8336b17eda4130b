package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visaHedgeBot/internal/retry"
)

// Generator is a black-box text model: a system instruction and a prompt in,
// prose out.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

var (
	// ErrNotConfigured is returned for a provider without credentials.
	ErrNotConfigured = errors.New("advisor not configured")
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("empty advisor response")
)

// Call runs gen with a per-attempt timeout and a single retry on transient
// errors.
func Call(ctx context.Context, gen Generator, timeout time.Duration, system, prompt string) (string, error) {
	if gen == nil {
		return "", ErrNotConfigured
	}
	cfg := retry.Once(timeout)
	cfg.Permanent = func(err error) bool { return errors.Is(err, ErrNotConfigured) }

	var text string
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		out, err := gen.Generate(ctx, system, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return ErrEmptyResponse
		}
		text = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("advisor call: %w", err)
	}
	return text, nil
}
