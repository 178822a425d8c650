// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"

	"github.com/sirupsen/logrus"
)

// CachedEmbedder memoises vectors of the wrapped embedder. Cache failures are logged and never
// fail an embedding.
type CachedEmbedder struct {
	domain.Embedder
	cache domain.EmbeddingCache

	l *logrus.Logger
}

func Cached(embedder domain.Embedder, cache domain.EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{
		Embedder: embedder,
		cache:    cache,
		l:        log.Logger(log.LOG_EMBEDDING),
	}
}

func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	model := c.Model()
	hash := TextHash(text)

	vector, ok, err := c.cache.Get(model, hash)
	if err != nil {
		c.l.WithFields(logrus.Fields{"model": model, "error": err}).Warn("Could not read embedding cache")
	} else if ok {
		return vector, nil
	}

	vector, err = c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	err = c.cache.Put(model, hash, vector)
	if err != nil {
		c.l.WithFields(logrus.Fields{"model": model, "error": err}).Warn("Could not write embedding cache")
	}

	return vector, nil
}
