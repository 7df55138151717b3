package provider

import (
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/anthropic"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/deepseek"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/gemini"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/glm"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/kimi"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/ollama"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/openai"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/qwen"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider/spi"
)

func NewInTreeRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(anthropic.Name, func() spi.ProviderPlugin { return anthropic.New() })
	r.MustRegister(openai.Name, func() spi.ProviderPlugin { return openai.New() })
	r.MustRegister(gemini.Name, func() spi.ProviderPlugin { return gemini.New() })
	r.MustRegister(deepseek.Name, func() spi.ProviderPlugin { return deepseek.New() })
	r.MustRegister(glm.Name, func() spi.ProviderPlugin { return glm.New() })
	r.MustRegister(kimi.Name, func() spi.ProviderPlugin { return kimi.New() })
	r.MustRegister(qwen.Name, func() spi.ProviderPlugin { return qwen.New() })
	r.MustRegister(ollama.Name, func() spi.ProviderPlugin { return ollama.New() })
	return r
}
