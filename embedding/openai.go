// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"fmt"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder uses the embeddings endpoint of OpenAI or of a compatible server (e.g. a local
// model server) when a base url is set.
type OpenAIEmbedder struct {
	client   *openai.Client
	model    string
	maxChars int
}

func NewOpenAIEmbedder(apiKey, baseUrl, model string, maxChars int) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		config.BaseURL = baseUrl
	}

	return &OpenAIEmbedder{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		maxChars: maxChars,
	}
}

func (o *OpenAIEmbedder) Model() string {
	return "openai:" + o.model
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{Truncate(text, o.maxChars)},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create openai embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embedding for model %s", o.model)
	}

	return domain.Vector(resp.Data[0].Embedding), nil
}
