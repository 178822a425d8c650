// SPDX-License-Identifier: GPL-3.0-or-later
package mailbox

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/mail"
	"github.com/emersion/go-imap"
	"github.com/sirupsen/logrus"
)

type memMail struct {
	uid   uint32
	flags map[string]bool
	raw   []byte
}

// memConnector is a minimal in-memory imap server with a single selected folder.
type memConnector struct {
	folders   map[string][]*memMail
	nextUid   map[string]uint32
	selected  string
	delimiter string

	puts   int
	moves  int
	closed bool
}

func newMemConnector(folders ...string) *memConnector {
	c := &memConnector{
		folders:   map[string][]*memMail{},
		nextUid:   map[string]uint32{},
		delimiter: "/",
	}
	for _, f := range folders {
		c.folders[f] = []*memMail{}
		c.nextUid[f] = 1
	}
	return c
}

func (c *memConnector) add(folder string, raw []byte, flags ...string) uint32 {
	uid := c.nextUid[folder]
	c.nextUid[folder]++
	m := &memMail{uid: uid, flags: map[string]bool{}, raw: raw}
	for _, f := range flags {
		m.flags[f] = true
	}
	c.folders[folder] = append(c.folders[folder], m)
	return uid
}

func (c *memConnector) get(folder string, uid uint32) *memMail {
	for _, m := range c.folders[folder] {
		if m.uid == uid {
			return m
		}
	}
	return nil
}

func (c *memConnector) subjects(folder string) []string {
	subjects := []string{}
	for _, m := range c.folders[folder] {
		p, _ := mail.Parse(m.raw)
		subjects = append(subjects, p.Subject)
	}
	sort.Strings(subjects)
	return subjects
}

func (c *memConnector) Delimiter() (string, error) { return c.delimiter, nil }

func (c *memConnector) ListFolders() ([]string, error) {
	folders := []string{}
	for f := range c.folders {
		folders = append(folders, f)
	}
	return folders, nil
}

func (c *memConnector) CreateFolder(folder string) error {
	if _, ok := c.folders[folder]; ok {
		return errors.New("folder exists")
	}
	c.folders[folder] = []*memMail{}
	c.nextUid[folder] = 1
	return nil
}

func (c *memConnector) Select(folder string) (uint32, error) {
	if _, ok := c.folders[folder]; !ok {
		return 0, fmt.Errorf("no such folder %s", folder)
	}
	c.selected = folder
	return 1, nil
}

func (c *memConnector) uids(keep func(*memMail) bool) []uint32 {
	uids := []uint32{}
	for _, m := range c.folders[c.selected] {
		if keep(m) {
			uids = append(uids, m.uid)
		}
	}
	return uids
}

func (c *memConnector) ListUids() ([]uint32, error) {
	return c.uids(func(m *memMail) bool { return true }), nil
}

func (c *memConnector) ListUnseenUids(excludeKeyword string) ([]uint32, error) {
	return c.uids(func(m *memMail) bool {
		return !m.flags[imap.SeenFlag] && !m.flags[imap.DeletedFlag] && (excludeKeyword == "" || !m.flags[excludeKeyword])
	}), nil
}

func (c *memConnector) ExistingUids(uids []uint32) ([]uint32, error) {
	wanted := map[uint32]bool{}
	for _, u := range uids {
		wanted[u] = true
	}
	return c.uids(func(m *memMail) bool { return wanted[m.uid] && !m.flags[imap.DeletedFlag] }), nil
}

func (c *memConnector) FindByMessageId(messageId string) ([]uint32, error) {
	return c.uids(func(m *memMail) bool {
		p, err := mail.Parse(m.raw)
		return err == nil && p.MessageId == messageId && !m.flags[imap.DeletedFlag]
	}), nil
}

func (c *memConnector) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	raws := []*domain.RawImapMail{}
	for _, u := range uids {
		m := c.get(c.selected, u)
		if m == nil {
			continue
		}
		flags := []string{}
		for f := range m.flags {
			flags = append(flags, f)
		}
		sort.Strings(flags)
		raws = append(raws, &domain.RawImapMail{Uid: m.uid, Flags: flags, RawMail: m.raw})
	}
	return raws, nil
}

func (c *memConnector) Put(body []byte, folder string, flags []string) error {
	if _, ok := c.folders[folder]; !ok {
		return fmt.Errorf("no such folder %s", folder)
	}
	c.puts++
	c.add(folder, body, flags...)
	return nil
}

func (c *memConnector) AddFlags(uids []uint32, flags []string) error {
	for _, u := range uids {
		m := c.get(c.selected, u)
		if m == nil {
			return fmt.Errorf("no mail with uid %d", u)
		}
		for _, f := range flags {
			m.flags[f] = true
		}
	}
	return nil
}

func (c *memConnector) DeleteReady() (error, error) { return nil, nil }

func (c *memConnector) Delete(uids []uint32) error {
	kept := []*memMail{}
	for _, m := range c.folders[c.selected] {
		remove := false
		for _, u := range uids {
			remove = remove || m.uid == u
		}
		if !remove {
			kept = append(kept, m)
		}
	}
	c.folders[c.selected] = kept
	return nil
}

func (c *memConnector) MoveReady() (error, error) { return nil, nil }

func (c *memConnector) Move(uids []uint32, folder string) error {
	if _, ok := c.folders[folder]; !ok {
		return fmt.Errorf("no such folder %s", folder)
	}
	for _, u := range uids {
		m := c.get(c.selected, u)
		if m == nil {
			return fmt.Errorf("no mail with uid %d", u)
		}
		flags := []string{}
		for f := range m.flags {
			flags = append(flags, f)
		}
		c.add(folder, m.raw, flags...)
	}
	c.moves++
	return c.Delete(uids)
}

func (c *memConnector) Close() error {
	c.closed = true
	return nil
}

func rawMail(messageId, subject, body string) []byte {
	return []byte("Message-Id: <" + messageId + ">\r\n" +
		"From: Anna <anna@example.org>\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

func testSession(conn domain.ImapConnector, keyword string) *Session {
	return &Session{
		conn:             conn,
		processedKeyword: keyword,
		l:                nullLogger(),
	}
}

func nullLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}
