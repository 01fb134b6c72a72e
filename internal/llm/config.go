// Package llm wraps the Gemini API behind a tiered client. Callers pick a
// capability tier, not a model name; the tier-to-model mapping lives here.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: requirement extraction, classification
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: fit scoring, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: resume tailoring and condensing
	TierAdvanced ModelTier = "advanced"
)

// Config maps tiers to concrete model names.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model per tier
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model configured for tier. A tier with no entry falls
// back to the standard model, then the lite model, then "".
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c with one tier remapped. The receiver is not
// modified.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	models := make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		models[k] = v
	}
	models[tier] = model
	return &Config{Models: models}
}
