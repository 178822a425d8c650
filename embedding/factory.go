// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"fmt"

	"github.com/CrawX/go-mail-receptionist/domain"
)

const (
	ProviderBuiltin = "builtin"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"

	probeText = "Impftermin vereinbaren"
)

type Settings struct {
	Provider      string
	Model         string
	ApiKey        string
	BaseUrl       string
	Region        string
	MaxInputChars int
}

func NewEmbedder(ctx context.Context, settings Settings) (domain.Embedder, error) {
	switch settings.Provider {
	case ProviderBuiltin, "":
		return NewBuiltinEmbedder(), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(settings.ApiKey, settings.BaseUrl, settings.Model, settings.MaxInputChars), nil
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, settings.ApiKey, settings.Model, settings.MaxInputChars)
	case ProviderBedrock:
		return NewBedrockEmbedder(ctx, settings.Region, settings.Model, settings.MaxInputChars)
	}

	return nil, fmt.Errorf("unknown embedding provider %s", settings.Provider)
}

// Probe embeds a short text once so an unusable model fails at startup.
func Probe(ctx context.Context, embedder domain.Embedder) error {
	vector, err := embedder.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("could not load embedding model %s: %w", embedder.Model(), err)
	}
	if len(vector) == 0 {
		return fmt.Errorf("embedding model %s returned an empty vector", embedder.Model())
	}
	return nil
}
