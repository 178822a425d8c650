// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import "github.com/emersion/go-imap"

//go:generate mockgen -destination=delete_move_mocks_test.go -package=imapconnection -source delete_move.go

// deleter and mover are picked once per connection, from UIDPLUS and MOVE support of the server.
// copyDeleter embeds deleter, so all three live in one file for source mode mockgen.

type deleter interface {
	delete([]uint32) error
	deleteReady() (error, error)
}

type mover interface {
	move(uids []uint32, folder string) error
	moveReady() (error, error)
}

type copyDeleter interface {
	deleter
	UidCopy(seqset *imap.SeqSet, dest string) error
}
