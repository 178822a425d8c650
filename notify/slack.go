// SPDX-License-Identifier: GPL-3.0-or-later
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/mail"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

const maxListedSubjects = 10

type Settings struct {
	BotToken   string
	Channel    string
	WebhookUrl string
}

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a summary of cycles with positive mails, either through a bot token and
// channel or through an incoming webhook.
type SlackNotifier struct {
	client     poster
	channel    string
	webhookUrl string
	postHook   func(ctx context.Context, url string, msg *slack.WebhookMessage) error

	l *logrus.Logger
}

func NewSlackNotifier(settings Settings) (*SlackNotifier, error) {
	n := &SlackNotifier{
		channel:    settings.Channel,
		webhookUrl: settings.WebhookUrl,
		postHook:   slack.PostWebhookContext,
		l:          log.Logger(log.LOG_NOTIFY),
	}

	switch {
	case settings.WebhookUrl != "":
	case settings.BotToken != "" && settings.Channel != "":
		n.client = slack.New(settings.BotToken)
	default:
		return nil, fmt.Errorf("slack needs either a webhook url or a bot token and channel")
	}

	return n, nil
}

func (n *SlackNotifier) Notify(ctx context.Context, report *domain.CycleReport) error {
	if report.Positive == 0 {
		return nil
	}

	text := Summary(report)

	var err error
	if n.webhookUrl != "" {
		err = n.postHook(ctx, n.webhookUrl, &slack.WebhookMessage{Text: text})
	} else {
		_, _, err = n.client.PostMessageContext(ctx, n.channel,
			slack.MsgOptionText(text, false),
			slack.MsgOptionPostMessageParameters(slack.PostMessageParameters{
				UnfurlLinks: false,
				UnfurlMedia: false,
			}),
		)
	}
	if err != nil {
		return fmt.Errorf("could not post to slack: %w", err)
	}

	n.l.WithFields(logrus.Fields{"cycle": report.CycleId, "positive": report.Positive}).Debug("Posted cycle summary")
	return nil
}

// Summary renders report as slack mrkdwn.
func Summary(report *domain.CycleReport) string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("*%d neue Impfanfrage(n)* (%d Mails geprüft", report.Positive, report.Checked))
	if report.Replied > 0 {
		b.WriteString(fmt.Sprintf(", %d automatisch beantwortet", report.Replied))
	}
	if report.Failed > 0 {
		b.WriteString(fmt.Sprintf(", %d fehlgeschlagen", report.Failed))
	}
	b.WriteString(")\n")

	for i, subject := range report.PositiveSubjects {
		if i == maxListedSubjects {
			b.WriteString(fmt.Sprintf("  • … und %d weitere\n", len(report.PositiveSubjects)-maxListedSubjects))
			break
		}
		b.WriteString(fmt.Sprintf("  • %s\n", mail.ShortSubject(subject)))
	}

	return b.String()
}
