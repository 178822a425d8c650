// SPDX-License-Identifier: GPL-3.0-or-later
package container

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/CrawX/go-mail-receptionist/classifier"
	"github.com/CrawX/go-mail-receptionist/config"
	"github.com/CrawX/go-mail-receptionist/corpus"
	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/embedding"
	"github.com/CrawX/go-mail-receptionist/imapconnection"
	"github.com/CrawX/go-mail-receptionist/mailbox"
	"github.com/CrawX/go-mail-receptionist/notify"
	"github.com/CrawX/go-mail-receptionist/persistence"
	"github.com/CrawX/go-mail-receptionist/responder"
	"github.com/CrawX/go-mail-receptionist/scheduler"
	"github.com/CrawX/go-mail-receptionist/spamcheck/rspamd"
	"github.com/CrawX/go-mail-receptionist/spamcheck/spamassassin"
	"github.com/CrawX/go-mail-receptionist/triage"

	"github.com/robfig/cron/v3"
	"go.uber.org/dig"
)

// BuildContainer registers every component of the receptionist for conf. Optional components
// (embedding cache, spam guard, Slack notifier) are only provided when configured. ctx bounds the
// connection checks done while constructing them.
func BuildContainer(ctx context.Context, conf *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return conf },
		func() context.Context { return ctx },
		newEmbedder,
		newCorpus,
		newClassifier,
		newOpener,
		newResponder,
		newTriage,
		func(t *triage.Triage) domain.CycleRunner { return t },
		newSchedule,
		scheduler.NewScheduler,
	}

	if conf.Cache.Driver != config.CacheNone {
		providers = append(providers, newCache)
	}

	if len(conf.SpamCheck.SpamassassinHost) > 0 || len(conf.SpamCheck.RspamdController) > 0 {
		providers = append(providers, newSpamGuard)
	}

	if len(conf.Slack.BotToken) > 0 || len(conf.Slack.WebhookUrl) > 0 {
		providers = append(providers, newNotifier)
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

// Cache is injected wherever the optional embedding cache is needed.
type Cache struct {
	dig.In

	Cache domain.EmbeddingCache `optional:"true"`
}

func newCache(conf *config.Config) (domain.EmbeddingCache, error) {
	switch conf.Cache.Driver {
	case config.CacheMemory:
		return persistence.NewMemoryCache(conf.Cache.Size), nil
	case config.CacheSqlite, config.CacheMysql:
		p, err := persistence.NewPersistence(conf.Cache.Driver, conf.Cache.Dsn)
		if err != nil {
			return nil, fmt.Errorf("could not open embedding cache: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown cache driver %s", conf.Cache.Driver)
}

type embedders struct {
	dig.Out

	// Embedder embeds incoming mails.
	Embedder domain.Embedder
	// Examples embeds example texts.
	Examples domain.Embedder `name:"examples"`
}

// newEmbedder wraps the configured provider with the cache. A persistent cache only ever sees
// example texts, vectors of incoming mails are not written to disk.
func newEmbedder(ctx context.Context, conf *config.Config, cache Cache) (embedders, error) {
	embedder, err := embedding.NewEmbedder(ctx, embedding.Settings{
		Provider:      conf.Embedding.Provider,
		Model:         conf.Embedding.Model,
		ApiKey:        conf.Embedding.ApiKey,
		BaseUrl:       conf.Embedding.BaseUrl,
		Region:        conf.Embedding.Region,
		MaxInputChars: conf.Embedding.MaxInputChars,
	})
	if err != nil {
		return embedders{}, err
	}

	if cache.Cache == nil {
		return embedders{Embedder: embedder, Examples: embedder}, nil
	}

	cached := embedding.Cached(embedder, cache.Cache)
	if conf.Cache.Driver == config.CacheMemory {
		return embedders{Embedder: cached, Examples: cached}, nil
	}
	return embedders{Embedder: embedder, Examples: cached}, nil
}

type corpusParams struct {
	dig.In

	Config   *config.Config
	Embedder domain.Embedder `name:"examples"`
}

func newCorpus(p corpusParams) domain.ExampleCorpus {
	conf := p.Config
	return corpus.NewCorpus(p.Embedder, corpus.Settings{
		PositiveFolder: conf.PositiveExamplesFolder,
		NegativeFolder: conf.NegativeExamplesFolder,
		UseBuiltin:     conf.UseBuiltinExamples,
		Tag:            conf.FilterTag,
	})
}

func newClassifier(conf *config.Config) (domain.Classifier, error) {
	return classifier.NewClassifier(classifier.Aggregation(conf.Embedding.Aggregation))
}

func newOpener(conf *config.Config) domain.MailboxOpener {
	dialer := imapconnection.NewDialer(imapconnection.Settings{
		Server:   net.JoinHostPort(conf.ImapServer, strconv.Itoa(conf.ImapPort)),
		TLSMode:  conf.ImapTLSMode,
		User:     conf.LoginAddress,
		Password: conf.Password,
		Compress: conf.ImapCompress,
	})
	return mailbox.NewOpener(dialer, conf.ProcessedKeyword)
}

func newResponder(conf *config.Config) domain.Responder {
	if conf.DryRun {
		return responder.NewDryRunResponder(conf.ReplyFrom)
	}
	return responder.NewSmtpResponder(responder.Settings{
		Host:     conf.SmtpServer,
		Port:     conf.SmtpPort,
		TLSMode:  conf.SmtpTLSMode,
		User:     conf.SmtpUser,
		Password: conf.SmtpPassword,
		From:     conf.ReplyFrom,
	})
}

func newSpamGuard(ctx context.Context, conf *config.Config) (domain.SpamChecker, error) {
	if len(conf.SpamCheck.RspamdController) > 0 {
		return rspamd.NewRspamd(ctx, conf.SpamCheck.RspamdController, conf.SpamCheck.RspamdPassword)
	}
	return spamassassin.NewSpamAssassin(ctx, conf.SpamCheck.SpamassassinHost)
}

func newNotifier(conf *config.Config) (domain.Notifier, error) {
	return notify.NewSlackNotifier(notify.Settings{
		BotToken:   conf.Slack.BotToken,
		Channel:    conf.Slack.Channel,
		WebhookUrl: conf.Slack.WebhookUrl,
	})
}

type triageParams struct {
	dig.In

	Config     *config.Config
	Opener     domain.MailboxOpener
	Corpus     domain.ExampleCorpus
	Embedder   domain.Embedder
	Classifier domain.Classifier
	Responder  domain.Responder
	Guard      domain.SpamChecker `optional:"true"`
	Notifier   domain.Notifier    `optional:"true"`
}

func newTriage(p triageParams) (*triage.Triage, error) {
	conf := p.Config
	configs := []triage.ConfigFunc{
		triage.Source(conf.SourceFolder),
		triage.Threshold(conf.Threshold),
	}

	if conf.DryRun {
		configs = append(configs, triage.DryRun())
	}
	if len(conf.FilteredFolder) > 0 {
		configs = append(configs, triage.MoveTo(conf.FilteredFolder))
	}
	if len(conf.FilterTag) > 0 {
		configs = append(configs, triage.Tag(conf.FilterTag))
	}
	if len(conf.AutoResponseTemplate) > 0 {
		configs = append(configs, triage.AutoReply(conf.AutoResponseTemplate))
	}
	if p.Guard != nil {
		configs = append(configs, triage.ReplyGuard(p.Guard))
	}
	if p.Notifier != nil {
		configs = append(configs, triage.Notify(p.Notifier))
	}

	var folders []string
	for _, folder := range []string{conf.PositiveExamplesFolder, conf.NegativeExamplesFolder} {
		if len(folder) > 0 {
			folders = append(folders, folder)
		}
	}
	if len(folders) > 0 {
		configs = append(configs, triage.ExampleFolders(folders...))
	}

	return triage.NewTriage(p.Opener, p.Corpus, p.Embedder, p.Classifier, p.Responder, configs...)
}

func newSchedule(conf *config.Config) (cron.Schedule, error) {
	return scheduler.NewSchedule(conf.Interval.Duration, conf.Schedule)
}
