// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=mover_mocks_test.go -package=imapconnection -source mover.go
import (
	"fmt"

	"github.com/emersion/go-imap"
)

type uidMover interface {
	UidMove(seqset *imap.SeqSet, dest string) error
}

func uidSet(uids []uint32) *imap.SeqSet {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	return seqset
}

// nativeMover uses the MOVE extension, the server moves atomically.
type nativeMover struct {
	client uidMover
}

func (n *nativeMover) move(uids []uint32, folder string) error {
	if len(uids) == 0 {
		return nil
	}

	err := n.client.UidMove(uidSet(uids), folder)
	if err != nil {
		return fmt.Errorf("could not move mails to %s: %w", folder, err)
	}
	return nil
}

func (n *nativeMover) moveReady() (error, error) {
	return nil, nil
}

// copyDeleteMover emulates MOVE with COPY and a delete of the originals. The delete is tried twice
// because a copy left behind in both folders is picked up again by the next cycle.
type copyDeleteMover struct {
	conn copyDeleter
}

func (c *copyDeleteMover) move(uids []uint32, folder string) error {
	if len(uids) == 0 {
		return nil
	}

	notReadyReason, err := c.moveReady()
	if err != nil {
		return fmt.Errorf("could not check whether mails can be deleted after copying: %w", err)
	}
	if notReadyReason != nil {
		return fmt.Errorf("cannot move by copy and delete: %w", notReadyReason)
	}

	err = c.conn.UidCopy(uidSet(uids), folder)
	if err != nil {
		return fmt.Errorf("could not copy mails to %s: %w", folder, err)
	}

	err = c.conn.delete(uids)
	if err != nil {
		err = c.conn.delete(uids)
	}
	if err != nil {
		return fmt.Errorf("mails were copied to %s but the originals could not be deleted: %w", folder, err)
	}

	return nil
}

func (c *copyDeleteMover) moveReady() (error, error) {
	return c.conn.deleteReady()
}
