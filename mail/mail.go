// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

type Parsed struct {
	MessageId     string
	Subject       string
	From          string
	ReplyTo       string
	Body          string
	AutoSubmitted bool
}

// Parse extracts the header fields and the readable body of a raw RFC 5322 message.
// Unknown charsets are tolerated, the affected text is used as is.
func Parse(rawMail []byte) (*Parsed, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(rawMail))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}
	defer mr.Close()

	parsed := &Parsed{}

	parsed.MessageId, err = mr.Header.MessageID()
	if err != nil {
		// malformed ids are still usable for header searches
		parsed.MessageId = strings.Trim(strings.TrimSpace(mr.Header.Get("Message-Id")), "<>")
	}

	parsed.Subject, err = mr.Header.Subject()
	if err != nil {
		parsed.Subject = mr.Header.Get("Subject")
	}

	parsed.From = firstAddress(&mr.Header, "From")
	parsed.ReplyTo = firstAddress(&mr.Header, "Reply-To")
	parsed.AutoSubmitted = isAutoSubmitted(&mr.Header)

	parsed.Body, err = readBody(mr)
	if err != nil {
		return nil, fmt.Errorf("could not read mail body: %w", err)
	}

	return parsed, nil
}

func firstAddress(h *gomail.Header, key string) string {
	addresses, err := h.AddressList(key)
	if err != nil || len(addresses) == 0 {
		return ""
	}
	return addresses[0].Address
}

func isAutoSubmitted(h *gomail.Header) bool {
	autoSubmitted := strings.ToLower(strings.TrimSpace(h.Get("Auto-Submitted")))
	if autoSubmitted != "" && autoSubmitted != "no" {
		return true
	}

	switch strings.ToLower(strings.TrimSpace(h.Get("Precedence"))) {
	case "bulk", "junk", "list":
		return true
	}

	return h.Get("List-Id") != "" || h.Get("X-Auto-Response-Suppress") != ""
}

// readBody prefers the first text/plain part and falls back to the first text/html part.
func readBody(mr *gomail.Reader) (string, error) {
	var plain, html string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return "", err
		}

		inline, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := inline.ContentType()
		switch {
		case contentType == "text/plain" && plain == "":
			b, err := io.ReadAll(p.Body)
			if err != nil && !message.IsUnknownCharset(err) {
				return "", err
			}
			plain = string(b)
		case contentType == "text/html" && html == "":
			text, err := HtmlToText(p.Body)
			if err != nil {
				return "", err
			}
			html = text
		}
	}

	if strings.TrimSpace(plain) != "" {
		return NormalizeWhitespace(plain), nil
	}
	return html, nil
}

func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func ShortSubject(subject string) string {
	if utf8.RuneCountInString(subject) > 30 {
		subject = string([]rune(subject)[:30]) + "..."
	}
	return subject
}
