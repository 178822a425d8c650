// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/embedding"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/mail"

	"github.com/emersion/go-imap"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSourceFolder = "INBOX"
	DefaultThreshold    = 55
	EmbedConcurrency    = 4
)

type Triage struct {
	opener     domain.MailboxOpener
	corpus     domain.ExampleCorpus
	embedder   domain.Embedder
	classifier domain.Classifier
	responder  domain.Responder

	configuration *configuration

	l *logrus.Logger
}

func NewTriage(opener domain.MailboxOpener, corpus domain.ExampleCorpus, embedder domain.Embedder, classifier domain.Classifier, responder domain.Responder, configFunc ...ConfigFunc) (*Triage, error) {
	config := &configuration{
		SourceFolder: DefaultSourceFolder,
		Threshold:    DefaultThreshold,
	}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	err := config.validate()
	if err != nil {
		return nil, fmt.Errorf("error applying configuration: %w", err)
	}
	if config.AutoReply && responder == nil {
		return nil, fmt.Errorf("error applying configuration: %w: AutoReply needs a responder", domain.ErrInvalidConfig)
	}

	return &Triage{
		opener:        opener,
		corpus:        corpus,
		embedder:      embedder,
		classifier:    classifier,
		responder:     responder,
		configuration: config,
		l:             log.Logger(log.LOG_TRIAGE),
	}, nil
}

// Preflight connects once, creates missing folders and builds the example set. Any error means
// triage must not start.
func (t *Triage) Preflight(ctx context.Context) error {
	session, err := t.opener.Open(ctx)
	if err != nil {
		return err
	}
	defer t.closeSession(session)

	folders := append([]string{t.configuration.MoveTo}, t.configuration.ExampleFolders...)
	if t.configuration.DryRun {
		t.l.WithFields(logrus.Fields{"folders": folders}).Info("Not creating missing folders due to dry-run")
	} else {
		err = session.EnsureFolders(folders...)
		if err != nil {
			return err
		}
	}

	examples, err := t.corpus.Build(ctx, session)
	if err != nil {
		return fmt.Errorf("could not build example set: %w", err)
	}

	t.l.WithFields(logrus.Fields{"positive": len(examples.Positive), "negative": len(examples.Negative)}).Info("Preflight succeeded")
	return nil
}

// RunCycle fetches unseen mails, classifies them and acts on the positive ones. Errors returned
// abort the whole cycle, errors of single mails are logged and counted in the report. ctx is
// checked between states and between mails, a mailbox operation already started is completed.
func (t *Triage) RunCycle(ctx context.Context, progress domain.ProgressFunc) (*domain.CycleReport, error) {
	if progress == nil {
		progress = func(domain.CycleState) {}
	}

	report := &domain.CycleReport{
		CycleId:          uuid.NewString(),
		Started:          time.Now(),
		PositiveSubjects: []string{},
	}
	defer func() { report.Duration = time.Since(report.Started) }()

	l := t.l.WithField("cycle", report.CycleId[:8])
	work := context.WithoutCancel(ctx)

	progress(domain.StateConnecting)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	session, err := t.opener.Open(work)
	if err != nil {
		return report, err
	}
	defer t.closeSession(session)

	progress(domain.StateFetchingExamples)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	examples, err := t.corpus.Build(work, session)
	if err != nil {
		return report, fmt.Errorf("could not build example set: %w", err)
	}

	progress(domain.StateFetchingMessages)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	messages, err := session.FetchUnseen(t.configuration.SourceFolder)
	if err != nil {
		return report, fmt.Errorf("could not fetch new mails: %w", err)
	}

	report.Checked = len(messages)
	if len(messages) == 0 {
		l.WithFields(logrus.Fields{"folder": t.configuration.SourceFolder}).Info("Folder contains no new mails")
		return report, nil
	}
	l.WithFields(logrus.Fields{"folder": t.configuration.SourceFolder, "newmails": len(messages)}).Info("Found mails to classify")

	progress(domain.StateClassifying)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	decisions := t.classify(work, messages, examples, l)

	progress(domain.StateActing)
	for i, msg := range messages {
		if ctx.Err() != nil {
			l.WithFields(logrus.Fields{"remaining": len(messages) - i}).Info("Cycle cancelled, remaining mails stay unseen")
			return report, ctx.Err()
		}

		decision := decisions[i]
		if decision == nil {
			report.Failed++
			continue
		}

		ml := l.WithFields(logrus.Fields{"subject": mail.ShortSubject(msg.Subject), "uid": msg.Uid, "score": fmt.Sprintf("%.1f", decision.Score)})
		if decision.IsPositive {
			report.Positive++
			report.PositiveSubjects = append(report.PositiveSubjects, msg.Subject)
		}

		err = t.act(work, session, msg, decision, report, ml)
		if errors.Is(err, domain.ErrMessageGone) {
			ml.WithFields(logrus.Fields{"error": err}).Warn("Mail disappeared, skipping")
			report.Skipped++
		} else if err != nil {
			ml.WithFields(logrus.Fields{"error": err}).Warn("Could not act on mail, it stays unseen")
			report.Failed++
		}
	}

	report.Duration = time.Since(report.Started)
	l.WithFields(logrus.Fields{
		"duration": report.Duration,
		"checked":  report.Checked,
		"positive": report.Positive,
		"moved":    report.Moved,
		"tagged":   report.Tagged,
		"replied":  report.Replied,
		"failed":   report.Failed,
		"skipped":  report.Skipped,
	}).Info("Finished cycle")

	t.notify(work, report, l)
	return report, nil
}

// classify returns one decision per message, nil where embedding or classification failed.
func (t *Triage) classify(ctx context.Context, messages []*domain.Message, examples *domain.ExampleSet, l *logrus.Entry) []*domain.Decision {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = mail.ClassificationText(m.Subject, m.Body, t.configuration.Tag)
	}

	start := time.Now()
	embeddings := embedding.EmbedAll(ctx, t.embedder, texts, EmbedConcurrency)
	l.WithFields(logrus.Fields{"duration": time.Since(start), "mails": len(texts)}).Debug("Embedded mails")

	decisions := make([]*domain.Decision, len(messages))
	for i, m := range messages {
		ml := l.WithFields(logrus.Fields{"subject": mail.ShortSubject(m.Subject), "uid": m.Uid})
		if embeddings[i].Error != nil {
			ml.WithFields(logrus.Fields{"error": embeddings[i].Error}).Warn("Could not embed mail, it stays unseen")
			continue
		}

		decision, err := t.classifier.Decide(embeddings[i].Vector, examples, t.configuration.Threshold)
		if err != nil {
			ml.WithFields(logrus.Fields{"error": err}).Warn("Could not classify mail, it stays unseen")
			continue
		}
		decision.MessageId = m.MessageId

		ml.WithFields(logrus.Fields{
			"score":    fmt.Sprintf("%.1f", decision.Score),
			"positive": decision.IsPositive,
			"p":        fmt.Sprintf("%.3f", decision.PositiveSimilarity),
			"n":        fmt.Sprintf("%.3f", decision.NegativeSimilarity),
		}).Info("Classified mail")
		decisions[i] = decision
	}

	return decisions
}

// act runs the action sequence for one classified mail. Marking processed is always the last
// step so an interrupted sequence is repeated by the next cycle.
func (t *Triage) act(ctx context.Context, session domain.MailboxSession, msg *domain.Message, decision *domain.Decision, report *domain.CycleReport, l *logrus.Entry) error {
	if !decision.IsPositive {
		if t.configuration.DryRun {
			l.Debug("Not marking mail as processed due to dry-run")
			return nil
		}
		return session.MarkProcessed(msg)
	}

	if t.configuration.AutoReply {
		t.reply(ctx, session, msg, report, l)
	}

	if t.configuration.DryRun {
		l.WithFields(logrus.Fields{"tag": t.configuration.Tag, "destination": t.configuration.MoveTo}).Info("Not tagging or moving mail due to dry-run")
		return nil
	}

	var current *domain.Message
	var err error
	if len(t.configuration.Tag) > 0 {
		current, err = session.TagSubject(msg, t.configuration.Tag, t.configuration.MoveTo)
		if err != nil {
			return err
		}
		report.Tagged++
	} else {
		current, err = session.Move(msg, t.configuration.MoveTo)
		if err != nil {
			return err
		}
	}
	if current.Folder != msg.Folder {
		report.Moved++
	}

	err = session.MarkProcessed(current)
	if err != nil {
		return err
	}

	l.WithFields(logrus.Fields{"folder": current.Folder}).Info("Triaged mail")
	return nil
}

// reply sends the auto reply. Its failure never stops the remaining actions.
func (t *Triage) reply(ctx context.Context, session domain.MailboxSession, msg *domain.Message, report *domain.CycleReport, l *logrus.Entry) {
	if msg.AutoSubmitted {
		l.Info("Not replying to automatically generated mail")
		return
	}
	if msg.HasFlag(imap.AnsweredFlag) {
		l.Debug("Mail was answered already, not replying")
		return
	}

	if t.configuration.ReplyGuard != nil {
		result := t.configuration.ReplyGuard.Check(ctx, msg.Raw)
		if result.Error != nil {
			l.WithFields(logrus.Fields{"error": result.Error}).Warn("Could not check mail for spam, not replying")
			return
		}
		if result.IsSpam {
			l.WithFields(logrus.Fields{"spamscore": result.Score}).Info("Not replying to spam")
			return
		}
	}

	err := t.responder.Send(ctx, msg, t.configuration.ReplyTemplate)
	if err != nil {
		l.WithFields(logrus.Fields{"error": err}).Warn("Could not send auto reply")
		return
	}
	report.Replied++

	if t.configuration.DryRun {
		return
	}

	err = session.MarkAnswered(msg)
	if err != nil {
		l.WithFields(logrus.Fields{"error": err}).Warn("Could not flag mail as answered")
	}
}

func (t *Triage) notify(ctx context.Context, report *domain.CycleReport, l *logrus.Entry) {
	if t.configuration.Notifier == nil || report.Positive == 0 {
		return
	}
	if t.configuration.DryRun {
		l.Info("Not notifying due to dry-run")
		return
	}

	err := t.configuration.Notifier.Notify(ctx, report)
	if err != nil {
		l.WithFields(logrus.Fields{"error": err}).Warn("Could not send notification")
	}
}

func (t *Triage) closeSession(session domain.MailboxSession) {
	err := session.Close()
	if err != nil {
		t.l.WithFields(logrus.Fields{"error": err}).Warn("Could not close mailbox session")
	}
}
