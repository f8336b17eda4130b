// Package app assembles a hedge.Service from configuration.
package app

import (
	"fmt"
	"log"

	"visaHedgeBot/internal/advisor"
	"visaHedgeBot/internal/cache"
	"visaHedgeBot/internal/config"
	"visaHedgeBot/internal/deepseek"
	"visaHedgeBot/internal/gemini"
	"visaHedgeBot/internal/hedge"
	"visaHedgeBot/internal/openai"
	"visaHedgeBot/internal/quote"
)

// NewGenerator returns the provider client registered under name.
func NewGenerator(name string, cfg config.Config) (advisor.Generator, error) {
	switch name {
	case "gemini":
		return gemini.NewClient(cfg.GeminiKey, cfg.GeminiModel), nil
	case "openai":
		return openai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel), nil
	case "deepseek":
		return deepseek.NewClient(cfg.DeepSeekKey, cfg.DeepSeekModel), nil
	case "", "none", "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown advisor %q", name)
	}
}

// NewService wires the advisors, the quote chain and persistence. store and
// persist may be nil.
func NewService(cfg config.Config, store cache.Store, persist hedge.Persister) (*hedge.Service, error) {
	primary, err := NewGenerator(cfg.PrimaryAdvisor, cfg)
	if err != nil {
		return nil, fmt.Errorf("primary advisor: %w", err)
	}
	if primary == nil {
		return nil, fmt.Errorf("primary advisor is required")
	}
	validator, err := NewGenerator(cfg.ValidatorAdvisor, cfg)
	if err != nil {
		return nil, fmt.Errorf("validator advisor: %w", err)
	}
	pricer, err := NewGenerator(cfg.PriceAdvisor, cfg)
	if err != nil {
		return nil, fmt.Errorf("price advisor: %w", err)
	}
	log.Printf("app: advisors primary=%s validator=%s price=%s",
		cfg.PrimaryAdvisor, orNone(cfg.ValidatorAdvisor, validator), orNone(cfg.PriceAdvisor, pricer))

	o := hedge.Options{
		Primary:   advisor.NewRecommender(primary, cfg.AdvisorTimeout),
		Quotes:    quote.Build(cfg, store),
		Persist:   persist,
		Reference: cfg.Reference,
	}
	if validator != nil {
		o.Validator = advisor.NewValidator(validator, cfg.AdvisorTimeout)
	}
	if pricer != nil {
		o.Lookup = advisor.NewPriceLookup(pricer, cfg.AdvisorTimeout)
	}
	return hedge.NewService(o), nil
}

func orNone(name string, gen advisor.Generator) string {
	if gen == nil {
		return "none"
	}
	return name
}
