// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"fmt"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiEmbedder struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	modelName string
	maxChars  int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, maxChars int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}

	model := client.EmbeddingModel(modelName)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		modelName: modelName,
		maxChars:  maxChars,
	}, nil
}

func (g *GeminiEmbedder) Model() string {
	return "gemini:" + g.modelName
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	resp, err := g.model.EmbedContent(ctx, genai.Text(Truncate(text, g.maxChars)))
	if err != nil {
		return nil, fmt.Errorf("could not create gemini embedding: %w", err)
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding for model %s", g.modelName)
	}

	return domain.Vector(resp.Embedding.Values), nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}
