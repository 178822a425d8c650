// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap-compress"
	"github.com/emersion/go-imap-move"
	"github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

const (
	TLSModeImplicit = "tls"
	TLSModeStartTLS = "starttls"

	DialTimeout    = 30 * time.Second
	CommandTimeout = 2 * time.Minute
)

type Settings struct {
	Server   string
	TLSMode  string
	User     string
	Password string
	Compress bool
}

type ImapConnection struct {
	connection    *client.Client
	uidPlusClient *uidplus.Client
	mailDeleter   deleter
	mailMover     mover

	server string

	selectedFolder string
	delimiter      string

	l *logrus.Logger
}

// Dialer opens authenticated connections, one per triage cycle.
type Dialer struct {
	settings Settings
}

func NewDialer(settings Settings) *Dialer {
	return &Dialer{settings: settings}
}

func (d *Dialer) Dial(ctx context.Context) (domain.ImapConnector, error) {
	return NewImapConnection(ctx, d.settings)
}

func tlsConfig(server string) (*tls.Config, error) {
	host, _, err := net.SplitHostPort(server)
	if err != nil {
		return nil, fmt.Errorf("could not split host and port of %s: %w", server, err)
	}

	return &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}, nil
}

func dial(ctx context.Context, settings Settings) (*client.Client, error) {
	config, err := tlsConfig(settings.Server)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: DialTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	switch settings.TLSMode {
	case TLSModeImplicit, "":
		return client.DialWithDialerTLS(dialer, settings.Server, config)
	case TLSModeStartTLS:
		imapClient, err := client.DialWithDialer(dialer, settings.Server)
		if err != nil {
			return nil, err
		}

		supported, err := imapClient.SupportStartTLS()
		if err != nil {
			imapClient.Logout()
			return nil, fmt.Errorf("could not check for STARTTLS support: %w", err)
		}
		if !supported {
			imapClient.Logout()
			return nil, fmt.Errorf("server %s does not support STARTTLS, refusing unencrypted login", settings.Server)
		}

		err = imapClient.StartTLS(config)
		if err != nil {
			imapClient.Logout()
			return nil, fmt.Errorf("could not start tls: %w", err)
		}
		return imapClient, nil
	}

	return nil, fmt.Errorf("unsupported tls mode %q", settings.TLSMode)
}

func NewImapConnection(ctx context.Context, settings Settings) (*ImapConnection, error) {
	imapClient, err := dial(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}
	imapClient.Timeout = CommandTimeout

	err = imapClient.Login(settings.User, settings.Password)
	if err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	conn := &ImapConnection{
		connection: imapClient,
		server:     settings.Server,
		l:          log.Logger(log.LOG_IMAP),
	}

	err = conn.setupExtensions(settings.Compress)
	if err != nil {
		imapClient.Logout()
		return nil, err
	}

	return conn, nil
}

func (ic *ImapConnection) setupExtensions(useCompression bool) error {
	baseLogger := ic.l.WithFields(logrus.Fields{"server": ic.server})
	baseLogger.Debug("Logged in to server")

	if useCompression {
		compressClient := compress.NewClient(ic.connection)
		compressSupported, err := compressClient.SupportCompress(compress.Deflate)
		if err != nil {
			return fmt.Errorf("could not check for COMPRESS support: %w", err)
		}
		if compressSupported {
			err = compressClient.Compress(compress.Deflate)
			if err != nil {
				return fmt.Errorf("could not enable compression: %w", err)
			}
			baseLogger.Debug("COMPRESS=DEFLATE enabled")
		} else {
			baseLogger.Info("COMPRESS=DEFLATE not supported on server, continuing uncompressed")
		}
	}

	uidPlusClient := uidplus.NewClient(ic.connection)
	uidPlusSupported, err := uidPlusClient.SupportUidPlus()
	if err != nil {
		return fmt.Errorf("could not check for UIDPLUS support: %w", err)
	}

	moveClient := move.NewClient(ic.connection)
	moveSupported, err := moveClient.SupportMove()
	if err != nil {
		return fmt.Errorf("could not check for MOVE support: %w", err)
	}

	if uidPlusSupported {
		baseLogger.Debug("UIDPLUS supported on server, using UID delete")
		ic.uidPlusClient = uidPlusClient
		ic.mailDeleter = &uidPlusDeleter{imapConn: ic}
	} else {
		baseLogger.Info("UIDPLUS not supported on server, falling back to flag&expunge")
		ic.mailDeleter = &compatibilityDeleter{imapConn: ic}
	}

	if moveSupported {
		baseLogger.Debug("MOVE supported on server")
		ic.mailMover = &nativeMover{client: moveClient}
	} else {
		baseLogger.Info("MOVE not supported on server, falling back to copy&delete")
		ic.mailMover = &copyDeleteMover{conn: ic}
	}

	return nil
}

func (ic *ImapConnection) Delimiter() (string, error) {
	if ic.delimiter != "" {
		return ic.delimiter, nil
	}

	out := make(chan *imap.MailboxInfo, 1)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.List("", "", out)
	}()

	delimiter := ""
	for info := range out {
		delimiter = info.Delimiter
	}

	err := <-done
	if err != nil {
		return "", fmt.Errorf("could not determine hierarchy delimiter: %w", err)
	}

	ic.delimiter = delimiter
	return delimiter, nil
}

func (ic *ImapConnection) ListFolders() ([]string, error) {
	out := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.List("", "*", out)
	}()

	folders := []string{}
	for info := range out {
		folders = append(folders, info.Name)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not list folders: %w", err)
	}

	return folders, nil
}

func (ic *ImapConnection) CreateFolder(folder string) error {
	err := ic.connection.Create(folder)
	if err != nil {
		return fmt.Errorf("could not create folder %s: %w", folder, err)
	}

	ic.l.WithField("folder", folder).Info("Created folder")
	return nil
}

func (ic *ImapConnection) Select(folder string) (uint32, error) {
	m, err := ic.connection.Select(folder, false)
	if err != nil {
		return 0, fmt.Errorf("could not select folder: %w", err)
	}

	ic.selectedFolder = folder
	return m.UidValidity, nil
}

func (ic *ImapConnection) ListUids() ([]uint32, error) {
	// Get all UIDs in folder (empty search criteria)
	criteria := imap.NewSearchCriteria()
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list folder: %w", err)
	}

	return ids, nil
}

func (ic *ImapConnection) ListUnseenUids(excludeKeyword string) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag, imap.DeletedFlag}
	if excludeKeyword != "" {
		criteria.WithoutFlags = append(criteria.WithoutFlags, excludeKeyword)
	}

	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search unseen mails: %w", err)
	}

	return ids, nil
}

func (ic *ImapConnection) ExistingUids(uids []uint32) ([]uint32, error) {
	if len(uids) == 0 {
		return []uint32{}, nil
	}

	seqset := uidSet(uids)
	criteria := imap.NewSearchCriteria()
	criteria.Uid = seqset
	criteria.WithoutFlags = []string{imap.DeletedFlag}

	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search uids: %w", err)
	}

	return ids, nil
}

func (ic *ImapConnection) FindByMessageId(messageId string) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-Id", messageId)
	criteria.WithoutFlags = []string{imap.DeletedFlag}

	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search by message id: %w", err)
	}

	return ids, nil
}

// FetchMails fetches full messages with BODY.PEEK[] so the \Seen flag is left untouched.
func (ic *ImapConnection) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	seqset := uidSet(uids)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{fullBodySection.FetchItem(), imap.FetchFlags, imap.FetchUid}
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []*domain.RawImapMail{}
	var readErr error
	for msg := range messages {
		if readErr != nil {
			// drain the channel so UidFetch can finish
			continue
		}

		r := msg.GetBody(fullBodySection)
		if r == nil {
			ic.l.WithFields(logrus.Fields{"folder": ic.selectedFolder, "uid": msg.Uid}).Warn("Server returned no body, skipping mail")
			continue
		}
		rawBody, err := io.ReadAll(r)
		if err != nil {
			readErr = fmt.Errorf("could not read mail body: %w", err)
			continue
		}

		mails = append(
			mails,
			&domain.RawImapMail{
				Uid:     msg.Uid,
				Flags:   msg.Flags,
				RawMail: rawBody,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return mails, nil
}

func (ic *ImapConnection) Put(body []byte, folder string, flags []string) error {
	err := ic.connection.Append(folder, flags, time.Now(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not append: %w", err)
	}

	return nil
}

func (ic *ImapConnection) AddFlags(uids []uint32, flags []string) error {
	seqset := uidSet(uids)

	values := make([]interface{}, len(flags))
	for i, f := range flags {
		values[i] = f
	}

	err := ic.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), values, nil)
	if err != nil {
		return fmt.Errorf("could not add flags %v: %w", flags, err)
	}

	return nil
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}

func (ic *ImapConnection) Delete(uids []uint32) error {
	return ic.delete(uids)
}

func (ic *ImapConnection) DeleteReady() (error, error) {
	return ic.deleteReady()
}

func (ic *ImapConnection) delete(uids []uint32) error {
	return ic.mailDeleter.delete(uids)
}

func (ic *ImapConnection) deleteReady() (error, error) {
	return ic.mailDeleter.deleteReady()
}

func (ic *ImapConnection) MoveReady() (error, error) {
	return ic.mailMover.moveReady()
}

func (ic *ImapConnection) Move(uids []uint32, folder string) error {
	return ic.mailMover.move(uids, folder)
}

func (ic *ImapConnection) flagDeleted(uids []uint32) (*imap.SeqSet, error) {
	seqset := uidSet(uids)
	err := ic.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.DeletedFlag}, nil)
	if err != nil {
		return nil, fmt.Errorf("could set delete flag: %w", err)
	}

	return seqset, nil
}

func (ic *ImapConnection) UidExpunge(seqSet *imap.SeqSet, ch chan uint32) error {
	return ic.uidPlusClient.UidExpunge(seqSet, ch)
}

func (ic *ImapConnection) Expunge(ch chan uint32) error {
	return ic.connection.Expunge(ch)
}

func (ic *ImapConnection) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	return ic.connection.UidSearch(criteria)
}

func (ic *ImapConnection) UidCopy(seqset *imap.SeqSet, dest string) error {
	return ic.connection.UidCopy(seqset, dest)
}
