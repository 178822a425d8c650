// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockEmbedder supports the Cohere multilingual and Amazon Titan text embedding models.
type BedrockEmbedder struct {
	client   bedrockInvoker
	modelId  string
	maxChars int
}

func NewBedrockEmbedder(ctx context.Context, region, modelId string, maxChars int) (*BedrockEmbedder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("could not load aws configuration: %w", err)
	}

	return &BedrockEmbedder{
		client:   bedrockruntime.NewFromConfig(cfg),
		modelId:  modelId,
		maxChars: maxChars,
	}, nil
}

func (b *BedrockEmbedder) Model() string {
	return "bedrock:" + b.modelId
}

func (b *BedrockEmbedder) isCohereModel() bool {
	return strings.Contains(b.modelId, "cohere.")
}

type cohereRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type cohereResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (b *BedrockEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	text = Truncate(text, b.maxChars)

	var payload []byte
	var err error
	if b.isCohereModel() {
		payload, err = json.Marshal(cohereRequest{
			Texts:     []string{text},
			InputType: "clustering",
			Truncate:  "END",
		})
	} else {
		payload, err = json.Marshal(titanRequest{InputText: text})
	}
	if err != nil {
		return nil, fmt.Errorf("could not marshal bedrock request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelId),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("could not invoke bedrock model %s: %w", b.modelId, err)
	}

	var vector []float32
	if b.isCohereModel() {
		var cohere cohereResponse
		err = json.Unmarshal(resp.Body, &cohere)
		if err == nil && len(cohere.Embeddings) > 0 {
			vector = cohere.Embeddings[0]
		}
	} else {
		var titan titanResponse
		err = json.Unmarshal(resp.Body, &titan)
		vector = titan.Embedding
	}
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal bedrock response: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("bedrock returned no embedding for model %s", b.modelId)
	}

	return domain.Vector(vector), nil
}
