// SPDX-License-Identifier: GPL-3.0-or-later
package mailbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"
	"github.com/CrawX/go-mail-receptionist/mail"

	"github.com/emersion/go-imap"
	"github.com/sirupsen/logrus"
)

// copyLookback bounds how many of the newest mails of a folder are compared byte by byte when
// looking for a copy of a mail without Message-Id.
const copyLookback = 50

// FolderSeparator separates folder levels in configured folder names, it is mapped to the
// hierarchy delimiter of the server.
const FolderSeparator = "/"

type Dialer interface {
	Dial(ctx context.Context) (domain.ImapConnector, error)
}

type Opener struct {
	dialer           Dialer
	processedKeyword string
}

func NewOpener(dialer Dialer, processedKeyword string) *Opener {
	return &Opener{
		dialer:           dialer,
		processedKeyword: processedKeyword,
	}
}

func (o *Opener) Open(ctx context.Context) (domain.MailboxSession, error) {
	conn, err := o.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mailbox: %w", err)
	}

	return NewSession(conn, o.processedKeyword), nil
}

// Session implements the mailbox operations of one triage cycle on top of a single connection.
// Every mutating operation is safe to repeat after an interruption.
type Session struct {
	conn             domain.ImapConnector
	processedKeyword string

	selected  string
	delimiter *string

	l *logrus.Logger
}

func NewSession(conn domain.ImapConnector, processedKeyword string) *Session {
	return &Session{
		conn:             conn,
		processedKeyword: processedKeyword,
		l:                log.Logger(log.LOG_MAILBOX),
	}
}

func (s *Session) Close() error {
	err := s.conn.Close()
	if err != nil {
		return fmt.Errorf("could not close connection: %w", err)
	}
	return nil
}

func (s *Session) serverName(folder string) (string, error) {
	if !strings.Contains(folder, FolderSeparator) {
		return folder, nil
	}

	if s.delimiter == nil {
		delimiter, err := s.conn.Delimiter()
		if err != nil {
			return "", err
		}
		s.delimiter = &delimiter
	}

	if *s.delimiter == "" || *s.delimiter == FolderSeparator {
		return folder, nil
	}
	return strings.ReplaceAll(folder, FolderSeparator, *s.delimiter), nil
}

func (s *Session) selectFolder(folder string) error {
	if s.selected == folder {
		return nil
	}

	name, err := s.serverName(folder)
	if err != nil {
		return err
	}

	_, err = s.conn.Select(name)
	if err != nil {
		return fmt.Errorf("could not select folder %s: %w", folder, err)
	}

	s.selected = folder
	return nil
}

// EnsureFolders creates every missing folder, empty names are ignored.
func (s *Session) EnsureFolders(folders ...string) error {
	existing, err := s.conn.ListFolders()
	if err != nil {
		return fmt.Errorf("could not list folders: %w", err)
	}

	known := map[string]bool{}
	for _, f := range existing {
		known[f] = true
	}

	for _, folder := range folders {
		if folder == "" {
			continue
		}

		name, err := s.serverName(folder)
		if err != nil {
			return fmt.Errorf("could not resolve folder %s: %w", folder, err)
		}
		if known[name] || strings.EqualFold(name, "INBOX") {
			continue
		}

		err = s.conn.CreateFolder(name)
		if err != nil {
			return fmt.Errorf("could not create missing folder %s: %w", folder, err)
		}
		known[name] = true
		s.l.WithFields(logrus.Fields{"folder": folder}).Info("Created missing folder")
	}

	return nil
}

// FetchUnseen returns messages without \Seen (and without the processed keyword, if configured).
// Fetching never changes flags.
func (s *Session) FetchUnseen(folder string) ([]*domain.Message, error) {
	err := s.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	uids, err := s.conn.ListUnseenUids(s.processedKeyword)
	if err != nil {
		return nil, fmt.Errorf("could not list unseen mails in %s: %w", folder, err)
	}

	return s.fetch(folder, uids)
}

func (s *Session) FetchAll(folder string) ([]*domain.Message, error) {
	err := s.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	uids, err := s.conn.ListUids()
	if err != nil {
		return nil, fmt.Errorf("could not list mails in %s: %w", folder, err)
	}

	return s.fetch(folder, uids)
}

func (s *Session) fetch(folder string, uids []uint32) ([]*domain.Message, error) {
	if len(uids) == 0 {
		return []*domain.Message{}, nil
	}

	raws, err := s.conn.FetchMails(uids)
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails in %s: %w", folder, err)
	}

	messages := make([]*domain.Message, 0, len(raws))
	for _, raw := range raws {
		parsed, err := mail.Parse(raw.RawMail)
		if err != nil {
			s.l.WithFields(logrus.Fields{"folder": folder, "uid": raw.Uid, "error": err}).Warn("Could not parse mail, skipping")
			continue
		}

		messages = append(messages, &domain.Message{
			Uid:           raw.Uid,
			Folder:        folder,
			MessageId:     parsed.MessageId,
			Subject:       parsed.Subject,
			From:          parsed.From,
			ReplyTo:       parsed.ReplyTo,
			Body:          parsed.Body,
			Flags:         raw.Flags,
			AutoSubmitted: parsed.AutoSubmitted,
			Raw:           raw.RawMail,
		})
	}

	return messages, nil
}

// stillPresent reports whether msg still is at its recorded location.
func (s *Session) stillPresent(msg *domain.Message) (bool, error) {
	if msg.Uid == 0 {
		return false, nil
	}

	err := s.selectFolder(msg.Folder)
	if err != nil {
		return false, err
	}

	uids, err := s.conn.ExistingUids([]uint32{msg.Uid})
	if err != nil {
		return false, fmt.Errorf("could not check for mail: %w", err)
	}
	return len(uids) > 0, nil
}

// findIn looks a message up by Message-Id in folder.
func (s *Session) findIn(folder string, messageId string) ([]uint32, error) {
	if messageId == "" {
		return nil, nil
	}

	err := s.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	uids, err := s.conn.FindByMessageId(messageId)
	if err != nil {
		return nil, fmt.Errorf("could not search for %s in %s: %w", messageId, folder, err)
	}
	return uids, nil
}

// findCopy looks msg up in folder, by Message-Id or, lacking one, by comparing the raw mail with
// the newest mails of folder.
func (s *Session) findCopy(folder string, msg *domain.Message) ([]uint32, error) {
	if msg.MessageId != "" {
		return s.findIn(folder, msg.MessageId)
	}
	if len(msg.Raw) == 0 {
		return nil, nil
	}

	err := s.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	uids, err := s.conn.ListUids()
	if err != nil {
		return nil, fmt.Errorf("could not list mails in %s: %w", folder, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if len(uids) > copyLookback {
		uids = uids[:copyLookback]
	}

	raws, err := s.conn.FetchMails(uids)
	if err != nil {
		return nil, fmt.Errorf("could not fetch candidates in %s: %w", folder, err)
	}

	found := []uint32{}
	for _, raw := range raws {
		if hasFlag(raw.Flags, imap.DeletedFlag) || !bytes.Equal(raw.RawMail, msg.Raw) {
			continue
		}
		found = append(found, raw.Uid)
	}
	return found, nil
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func moved(msg *domain.Message, folder string, uid uint32) *domain.Message {
	copied := *msg
	copied.Folder = folder
	copied.Uid = uid
	return &copied
}

// Move moves msg to target. A message already found in target (by Message-Id, or by content when
// it has none) is reported as warning and treated as moved, a message found nowhere yields domain.ErrMessageGone.
func (s *Session) Move(msg *domain.Message, target string) (*domain.Message, error) {
	if msg.Folder == target {
		return msg, nil
	}

	present, err := s.stillPresent(msg)
	if err != nil {
		return nil, err
	}

	if !present {
		uids, err := s.findCopy(target, msg)
		if err != nil {
			return nil, err
		}
		if len(uids) == 0 {
			return nil, fmt.Errorf("could not move %q from %s: %w", mail.ShortSubject(msg.Subject), msg.Folder, domain.ErrMessageGone)
		}

		s.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(msg.Subject), "folder": target}).Warn("Mail was already moved")
		return moved(msg, target, uids[0]), nil
	}

	notMoveReadyReason, err := s.conn.MoveReady()
	if err != nil {
		return nil, fmt.Errorf("could not check for move readiness: %w", err)
	}
	if notMoveReadyReason != nil {
		return nil, fmt.Errorf("folder %s is not ready for moving: %w", msg.Folder, notMoveReadyReason)
	}

	name, err := s.serverName(target)
	if err != nil {
		return nil, err
	}

	err = s.conn.Move([]uint32{msg.Uid}, name)
	if err != nil {
		return nil, fmt.Errorf("could not move %q to %s: %w", mail.ShortSubject(msg.Subject), target, err)
	}

	s.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(msg.Subject), "from": msg.Folder, "to": target}).Debug("Moved mail")
	return moved(msg, target, 0), nil
}

// TagSubject stores a copy of msg with prefix applied to its subject in target (msg.Folder when
// empty) and removes the original. A subject that already carries the prefix is not tagged again
// and an existing tagged copy in target is reused instead of appending a second one.
func (s *Session) TagSubject(msg *domain.Message, prefix string, target string) (*domain.Message, error) {
	if target == "" {
		target = msg.Folder
	}

	if mail.HasTag(msg.Subject, prefix) {
		return s.Move(msg, target)
	}

	tagged := moved(msg, target, 0)
	tagged.Subject = mail.Tag(msg.Subject, prefix)

	existing, err := s.taggedCopy(target, msg.MessageId, prefix)
	if err != nil {
		return nil, err
	}

	if existing != 0 {
		s.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(msg.Subject), "folder": target}).Warn("Tagged copy already exists, not appending again")
		tagged.Uid = existing
	} else {
		present, err := s.stillPresent(msg)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, fmt.Errorf("could not tag %q in %s: %w", mail.ShortSubject(msg.Subject), msg.Folder, domain.ErrMessageGone)
		}

		if msg.MessageId == "" {
			s.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(msg.Subject)}).Warn("Mail has no Message-Id, an interrupted tag cannot be detected")
		}

		rewritten, err := mail.RewriteSubject(msg.Raw, tagged.Subject)
		if err != nil {
			return nil, fmt.Errorf("could not rewrite subject: %w", err)
		}

		name, err := s.serverName(target)
		if err != nil {
			return nil, err
		}

		err = s.conn.Put(rewritten, name, carriedFlags(msg.Flags))
		if err != nil {
			return nil, fmt.Errorf("could not store tagged copy in %s: %w", target, err)
		}
		tagged.Raw = rewritten
	}

	err = s.deleteOriginal(msg)
	if err != nil {
		return nil, err
	}

	s.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(tagged.Subject), "folder": target}).Debug("Tagged mail")
	return tagged, nil
}

func (s *Session) taggedCopy(folder, messageId, prefix string) (uint32, error) {
	uids, err := s.findIn(folder, messageId)
	if err != nil || len(uids) == 0 {
		return 0, err
	}

	raws, err := s.conn.FetchMails(uids)
	if err != nil {
		return 0, fmt.Errorf("could not fetch candidates for tagged copy: %w", err)
	}

	for _, raw := range raws {
		parsed, err := mail.Parse(raw.RawMail)
		if err != nil {
			continue
		}
		if mail.HasTag(parsed.Subject, prefix) {
			return raw.Uid, nil
		}
	}

	return 0, nil
}

func (s *Session) deleteOriginal(msg *domain.Message) error {
	present, err := s.stillPresent(msg)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}

	err = s.conn.Delete([]uint32{msg.Uid})
	if err != nil {
		return fmt.Errorf("could not delete original of %q: %w", mail.ShortSubject(msg.Subject), err)
	}
	return nil
}

// carriedFlags keeps the flags a tagged copy should inherit. \Seen is never carried, marking
// processed is always the last step.
func carriedFlags(flags []string) []string {
	carried := []string{}
	for _, f := range flags {
		switch f {
		case imap.SeenFlag, imap.RecentFlag, imap.DeletedFlag:
			continue
		}
		carried = append(carried, f)
	}
	return carried
}

func (s *Session) MarkAnswered(msg *domain.Message) error {
	return s.addFlag(msg, imap.AnsweredFlag)
}

// MarkProcessed excludes msg from future FetchUnseen calls.
func (s *Session) MarkProcessed(msg *domain.Message) error {
	flag := imap.SeenFlag
	if s.processedKeyword != "" {
		flag = s.processedKeyword
	}
	return s.addFlag(msg, flag)
}

func (s *Session) addFlag(msg *domain.Message, flag string) error {
	var uids []uint32
	present, err := s.stillPresent(msg)
	if err != nil {
		return err
	}

	if present {
		uids = []uint32{msg.Uid}
	} else {
		uids, err = s.findCopy(msg.Folder, msg)
		if err != nil {
			return err
		}
	}

	if len(uids) == 0 {
		return fmt.Errorf("could not flag %q with %s in %s: %w", mail.ShortSubject(msg.Subject), flag, msg.Folder, domain.ErrMessageGone)
	}

	err = s.conn.AddFlags(uids, []string{flag})
	if err != nil {
		return fmt.Errorf("could not flag %q with %s: %w", mail.ShortSubject(msg.Subject), flag, err)
	}

	// later copies of msg carry the flag
	if !msg.HasFlag(flag) {
		msg.Flags = append(msg.Flags, flag)
	}
	return nil
}

func IsMessageGone(err error) bool {
	return errors.Is(err, domain.ErrMessageGone)
}
