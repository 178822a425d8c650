// SPDX-License-Identifier: GPL-3.0-or-later
package responder

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/mail"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"
)

const (
	TLSModeImplicit = "tls"
	TLSModeStartTLS = "starttls"

	DialTimeout    = 30 * time.Second
	CommandTimeout = 2 * time.Minute
)

var ErrStartTLSUnsupported = errors.New("server does not support STARTTLS")

type Settings struct {
	Host     string
	Port     int
	TLSMode  string
	User     string
	Password string
	// From is the sender address of replies, the login address when empty
	From string
}

type SmtpResponder struct {
	settings  Settings
	tlsConfig *tls.Config
	l         *logrus.Logger
}

func NewSmtpResponder(settings Settings) *SmtpResponder {
	if settings.From == "" {
		settings.From = settings.User
	}
	return &SmtpResponder{
		settings: settings,
		tlsConfig: &tls.Config{
			ServerName: settings.Host,
			MinVersion: tls.VersionTLS12,
		},
		l: log.Logger(log.LOG_RESPONDER),
	}
}

func (r *SmtpResponder) Send(ctx context.Context, original *domain.Message, template string) error {
	to, err := Recipient(original)
	if err != nil {
		return err
	}

	raw, err := ComposeReply(original, r.settings.From, template, time.Now())
	if err != nil {
		return err
	}

	c, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	err = c.Auth(sasl.NewPlainClient("", r.settings.User, r.settings.Password))
	if err != nil {
		return fmt.Errorf("could not authenticate to smtp server: %w", err)
	}

	err = c.Mail(r.settings.From, nil)
	if err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	err = c.Rcpt(to, nil)
	if err != nil {
		return fmt.Errorf("RCPT TO %s failed: %w", to, err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	_, err = wc.Write(raw)
	if err != nil {
		wc.Close()
		return fmt.Errorf("could not send reply: %w", err)
	}

	err = wc.Close()
	if err != nil {
		return fmt.Errorf("could not finish reply: %w", err)
	}

	err = c.Quit()
	if err != nil {
		// the reply was accepted already
		r.l.WithField("error", err).Warn("QUIT command failed")
	}

	r.l.WithFields(logrus.Fields{"to": to, "subject": mail.ShortSubject(original.Subject)}).Info("Sent auto reply")
	return nil
}

func (r *SmtpResponder) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(r.settings.Host, strconv.Itoa(r.settings.Port))
	tlsConfig := r.tlsConfig.Clone()
	dialer := &net.Dialer{Timeout: DialTimeout}

	switch r.settings.TLSMode {
	case TLSModeImplicit, "":
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("could not connect to %s: %w", addr, err)
		}
		conn.SetDeadline(time.Now().Add(CommandTimeout))
		return smtp.NewClient(conn), nil

	case TLSModeStartTLS:
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("could not connect to %s: %w", addr, err)
		}
		conn.SetDeadline(time.Now().Add(CommandTimeout))

		c := smtp.NewClient(conn)
		if ok, _ := c.Extension("STARTTLS"); !ok {
			c.Close()
			return nil, fmt.Errorf("could not secure connection to %s: %w", addr, ErrStartTLSUnsupported)
		}

		err = c.StartTLS(tlsConfig)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("could not secure connection to %s: %w", addr, err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("unknown tls mode %s", r.settings.TLSMode)
}

// DryRunResponder logs the reply it would send.
type DryRunResponder struct {
	from string
	l    *logrus.Logger
}

func NewDryRunResponder(from string) *DryRunResponder {
	return &DryRunResponder{
		from: from,
		l:    log.Logger(log.LOG_RESPONDER),
	}
}

func (d *DryRunResponder) Send(ctx context.Context, original *domain.Message, template string) error {
	raw, err := ComposeReply(original, d.from, template, time.Now())
	if err != nil {
		return err
	}

	to, _ := Recipient(original)
	d.l.WithFields(logrus.Fields{"to": to, "size": len(raw), "subject": mail.ShortSubject(original.Subject)}).Info("Would send auto reply")
	d.l.Trace(string(bytes.TrimSpace(raw)))
	return nil
}
