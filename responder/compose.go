// SPDX-License-Identifier: GPL-3.0-or-later
package responder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/mail"

	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

var ErrNoRecipient = errors.New("original mail has neither Reply-To nor From")

// Recipient is the address a reply to original goes to.
func Recipient(original *domain.Message) (string, error) {
	if original.ReplyTo != "" {
		return original.ReplyTo, nil
	}
	if original.From != "" {
		return original.From, nil
	}
	return "", ErrNoRecipient
}

// ComposeReply builds the raw reply to original with template as text/plain body.
func ComposeReply(original *domain.Message, from string, template string, now time.Time) ([]byte, error) {
	to, err := Recipient(original)
	if err != nil {
		return nil, err
	}

	h := gomail.Header{}
	h.SetDate(now)
	h.SetAddressList("From", []*gomail.Address{{Address: from}})
	h.SetAddressList("To", []*gomail.Address{{Address: to}})
	h.SetSubject(mail.ReplySubject(original.Subject))
	h.SetMessageID(uuid.NewString() + "@" + senderDomain(from))
	if original.MessageId != "" {
		h.SetMsgIDList("In-Reply-To", []string{original.MessageId})
		h.SetMsgIDList("References", []string{original.MessageId})
	}
	h.Set("Auto-Submitted", "auto-replied")
	h.Set("X-Auto-Response-Suppress", "All")
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	buf := &bytes.Buffer{}
	w, err := gomail.CreateSingleInlineWriter(buf, h)
	if err != nil {
		return nil, fmt.Errorf("could not create reply writer: %w", err)
	}

	_, err = io.WriteString(w, strings.ReplaceAll(template, "\r\n", "\n"))
	if err != nil {
		return nil, fmt.Errorf("could not write reply body: %w", err)
	}

	err = w.Close()
	if err != nil {
		return nil, fmt.Errorf("could not finish reply: %w", err)
	}

	return buf.Bytes(), nil
}

func senderDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return "localhost"
	}
	return address[at+1:]
}

