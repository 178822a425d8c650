// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"

	"github.com/CrawX/go-mail-receptionist/domain"

	"golang.org/x/sync/errgroup"
)

// EmbedAll embeds texts with at most concurrency requests in flight. Every failed text is retried
// once, results keep the order of texts and failures are reported per text.
func EmbedAll(ctx context.Context, embedder domain.Embedder, texts []string, concurrency int) []*domain.EmbeddingResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*domain.EmbeddingResult, len(texts))
	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	for i := range texts {
		index := i
		g.Go(func() error {
			vector, err := embedder.Embed(ctx, texts[index])
			if err != nil && ctx.Err() == nil {
				vector, err = embedder.Embed(ctx, texts[index])
			}
			results[index] = &domain.EmbeddingResult{Vector: vector, Error: err}
			return nil
		})
	}

	g.Wait()
	return results
}
