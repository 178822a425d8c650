// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/imap.go -package=mocks . ImapConnector
type RawImapMail struct {
	Uid     uint32
	Flags   []string
	RawMail []byte
}

type ImapConnector interface {
	Delimiter() (string, error)
	ListFolders() ([]string, error)
	CreateFolder(folder string) error
	Select(folder string) (uint32, error)
	ListUids() ([]uint32, error)
	ListUnseenUids(excludeKeyword string) ([]uint32, error)
	ExistingUids(uids []uint32) ([]uint32, error)
	FindByMessageId(messageId string) ([]uint32, error)
	FetchMails(uids []uint32) ([]*RawImapMail, error)
	Put(body []byte, folder string, flags []string) error
	AddFlags(uids []uint32, flags []string) error
	DeleteReady() (error, error)
	Delete(uids []uint32) error
	MoveReady() (error, error)
	Move(uids []uint32, folder string) error

	Close() error
}
