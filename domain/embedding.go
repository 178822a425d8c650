// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "context"

//go:generate mockgen -destination=mocks/embedding.go -package=mocks . Embedder,EmbeddingCache

type Vector []float32

type EmbeddingResult struct {
	Vector Vector
	Error  error
}

type Embedder interface {
	// Model identifies the embedding model, vectors of different models are never compared.
	Model() string
	Embed(ctx context.Context, text string) (Vector, error)
}

type EmbeddingCache interface {
	Get(model string, textHash string) (Vector, bool, error)
	Put(model string, textHash string, vector Vector) error
	Close() error
}
