// SPDX-License-Identifier: GPL-3.0-or-later
package corpus

import (
	"context"
	"fmt"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/embedding"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/mail"

	"github.com/sirupsen/logrus"
)

const EmbedConcurrency = 4

type Settings struct {
	PositiveFolder string
	NegativeFolder string
	UseBuiltin     bool
	// Tag is stripped from example subjects so tagged examples embed like untagged mail.
	Tag string
}

// Corpus builds the example set from the example folders and the built-in examples. It is rebuilt
// every cycle so edits to the example folders apply without a restart.
type Corpus struct {
	embedder domain.Embedder
	settings Settings

	l *logrus.Logger
}

func NewCorpus(embedder domain.Embedder, settings Settings) *Corpus {
	return &Corpus{
		embedder: embedder,
		settings: settings,
		l:        log.Logger(log.LOG_CORPUS),
	}
}

func (c *Corpus) Build(ctx context.Context, source domain.ExampleSource) (*domain.ExampleSet, error) {
	positive, err := c.side(ctx, source, "positive", c.settings.PositiveFolder, builtinPositive)
	if err != nil {
		return nil, err
	}

	negative, err := c.side(ctx, source, "negative", c.settings.NegativeFolder, builtinNegative)
	if err != nil {
		return nil, err
	}

	c.l.WithFields(logrus.Fields{"positive": len(positive), "negative": len(negative)}).Debug("Built example set")

	return &domain.ExampleSet{
		Positive: positive,
		Negative: negative,
	}, nil
}

func (c *Corpus) side(ctx context.Context, source domain.ExampleSource, side, folder string, builtin []string) ([]domain.Vector, error) {
	texts := []string{}

	if folder != "" {
		messages, err := source.FetchAll(folder)
		if err != nil {
			if !c.settings.UseBuiltin {
				return nil, fmt.Errorf("could not fetch %s examples from %s: %w", side, folder, err)
			}
			c.l.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Could not fetch examples, using built-in examples only")
		}

		for _, m := range messages {
			texts = append(texts, mail.ClassificationText(m.Subject, m.Body, c.settings.Tag))
		}
	}

	if c.settings.UseBuiltin {
		texts = append(texts, builtin...)
	}

	vectors := []domain.Vector{}
	for i, result := range embedding.EmbedAll(ctx, c.embedder, texts, EmbedConcurrency) {
		if result.Error != nil {
			c.l.WithFields(logrus.Fields{"side": side, "text": mail.ShortSubject(texts[i]), "error": result.Error}).Warn("Could not embed example, skipping")
			continue
		}
		vectors = append(vectors, result.Vector)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(vectors) == 0 && c.settings.UseBuiltin {
		return nil, fmt.Errorf("%w: none of the %s examples could be embedded", domain.ErrEmptyExamples, side)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no %s examples in folder %q and built-in examples disabled", domain.ErrEmptyExamples, side, folder)
	}

	return vectors, nil
}
