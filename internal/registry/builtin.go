package registry

import "github.com/canvasloom/loom/pkg/conv"

const (
	capChat = conv.CapTextInput | conv.CapTextOutput | conv.CapStreaming
	capFull = capChat | conv.CapImageInput | conv.CapJSONOutput | conv.CapFunctionCalling
)

func (c *Catalog) registerBuiltinModels() {
	// Anthropic
	c.Register(&Model{
		ID:              "claude-opus-4",
		Name:            "Claude Opus 4",
		Provider:        "anthropic",
		Tier:            TierFlagship,
		ContextWindow:   200000,
		MaxOutputTokens: 32000,
		Capabilities:    capFull | conv.CapReasoning,
		Aliases:         []string{"opus"},
	})
	c.Register(&Model{
		ID:              "claude-sonnet-4",
		Name:            "Claude Sonnet 4",
		Provider:        "anthropic",
		Tier:            TierStandard,
		ContextWindow:   200000,
		MaxOutputTokens: 64000,
		Capabilities:    capFull | conv.CapReasoning,
		Aliases:         []string{"sonnet"},
	})
	c.Register(&Model{
		ID:              "claude-3-5-haiku-latest",
		Name:            "Claude 3.5 Haiku",
		Provider:        "anthropic",
		Tier:            TierFast,
		ContextWindow:   200000,
		MaxOutputTokens: 8192,
		Capabilities:    capFull,
		Aliases:         []string{"haiku"},
	})

	// OpenAI
	c.Register(&Model{
		ID:              "gpt-4o",
		Name:            "GPT-4o",
		Provider:        "openai",
		Tier:            TierFlagship,
		ContextWindow:   128000,
		MaxOutputTokens: 16384,
		Capabilities:    capFull | conv.CapImageOutput,
	})
	c.Register(&Model{
		ID:              "gpt-4o-mini",
		Name:            "GPT-4o mini",
		Provider:        "openai",
		Tier:            TierMini,
		ContextWindow:   128000,
		MaxOutputTokens: 16384,
		Capabilities:    capFull,
	})
	c.Register(&Model{
		ID:              "o3-mini",
		Name:            "o3-mini",
		Provider:        "openai",
		Tier:            TierFast,
		ContextWindow:   200000,
		MaxOutputTokens: 100000,
		Capabilities:    capChat | conv.CapJSONOutput | conv.CapFunctionCalling | conv.CapReasoning,
	})
	c.Register(&Model{
		ID:            "gpt-4-turbo",
		Name:          "GPT-4 Turbo",
		Provider:      "openai",
		Tier:          TierStandard,
		ContextWindow: 128000,
		Capabilities:  capFull,
		Deprecated:    true,
		ReplacedBy:    "gpt-4o",
	})

	// Google
	c.Register(&Model{
		ID:              "gemini-2.0-flash",
		Name:            "Gemini 2.0 Flash",
		Provider:        "google",
		Tier:            TierFast,
		ContextWindow:   1000000,
		MaxOutputTokens: 8192,
		Capabilities:    capFull,
		Aliases:         []string{"flash"},
	})
	c.Register(&Model{
		ID:              "gemini-1.5-pro",
		Name:            "Gemini 1.5 Pro",
		Provider:        "google",
		Tier:            TierStandard,
		ContextWindow:   2000000,
		MaxOutputTokens: 8192,
		Capabilities:    capFull,
	})

	// Ollama (local)
	c.Register(&Model{
		ID:            "llama3.3",
		Name:          "Llama 3.3",
		Provider:      "ollama",
		Tier:          TierStandard,
		ContextWindow: 128000,
		Capabilities:  capChat | conv.CapJSONOutput | conv.CapFunctionCalling,
	})
}
