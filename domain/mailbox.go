// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "context"

//go:generate mockgen -destination=mocks/mailbox.go -package=mocks . MailboxSession,MailboxOpener,ExampleSource

// Message is a snapshot of one mail as seen during a single triage cycle. Uid is 0 when the
// server-assigned uid at the current location is unknown (after a move or an append).
type Message struct {
	Uid           uint32
	Folder        string
	MessageId     string
	Subject       string
	From          string
	ReplyTo       string
	Body          string
	Flags         []string
	AutoSubmitted bool
	Raw           []byte
}

func (m *Message) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ExampleSource is the read-only part of a session the example corpus needs.
type ExampleSource interface {
	FetchAll(folder string) ([]*Message, error)
}

type MailboxSession interface {
	ExampleSource
	EnsureFolders(folders ...string) error
	FetchUnseen(folder string) ([]*Message, error)
	Move(msg *Message, target string) (*Message, error)
	TagSubject(msg *Message, prefix string, target string) (*Message, error)
	MarkAnswered(msg *Message) error
	MarkProcessed(msg *Message) error
	Close() error
}

type MailboxOpener interface {
	Open(ctx context.Context) (MailboxSession, error)
}
