// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=deleter_mocks_test.go -package=imapconnection -source deleter.go
import (
	"fmt"

	"github.com/emersion/go-imap"
)

type deletedFlagger interface {
	flagDeleted(uids []uint32) (*imap.SeqSet, error)
}

type deletedFlaggerAndUidExpunger interface {
	deletedFlagger
	UidExpunge(seqSet *imap.SeqSet, ch chan uint32) error
}

type uidPlusDeleter struct {
	imapConn deletedFlaggerAndUidExpunger
}

func (u *uidPlusDeleter) delete(uids []uint32) error {
	seqset, err := u.imapConn.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not flag items as deleted: %w", err)
	}

	expunged, err := collectExpunged(func(out chan uint32) error {
		return u.imapConn.UidExpunge(seqset, out)
	})
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if expunged != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), expunged)
	}

	return nil
}

func (u *uidPlusDeleter) deleteReady() (error, error) {
	// UIDPLUS can delete by uid and is therefore always ready
	return nil, nil
}

type deleteFlaggerAndExpunger interface {
	deletedFlagger
	Expunge(ch chan uint32) error
	UidSearch(criteria *imap.SearchCriteria) (uids []uint32, err error)
}

type compatibilityDeleter struct {
	imapConn deleteFlaggerAndExpunger
}

func (c *compatibilityDeleter) delete(uids []uint32) error {
	notDeleteReadyReason, err := c.readyFor(uids)
	if err != nil {
		return fmt.Errorf("could not check for delete readiness: %w", err)
	}

	if notDeleteReadyReason != nil {
		return fmt.Errorf("folder is not ready for delete: %w", notDeleteReadyReason)
	}

	_, err = c.imapConn.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not set deleted flag: %w", err)
	}

	expunged, err := collectExpunged(c.imapConn.Expunge)
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if expunged != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), expunged)
	}

	return nil
}

var ItemsWithDeletedFlagPresent = fmt.Errorf("folder has previous items with delete flag set")

func (c *compatibilityDeleter) deleteReady() (error, error) {
	return c.readyFor(nil)
}

// readyFor reports whether an EXPUNGE would only remove the given uids. EXPUNGE removes every
// message with \Deleted set, so foreign deletions (e.g. by a mail client) must not be present.
func (c *compatibilityDeleter) readyFor(uids []uint32) (error, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.DeletedFlag}
	flagged, err := c.imapConn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could search for deleted in folder: %w", err)
	}

	own := make(map[uint32]bool, len(uids))
	for _, uid := range uids {
		own[uid] = true
	}
	for _, uid := range flagged {
		if !own[uid] {
			return ItemsWithDeletedFlagPresent, nil
		}
	}

	return nil, nil
}

func collectExpunged(expunge func(out chan uint32) error) (int, error) {
	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- expunge(out)
	}()

	expunged := 0
	for range out {
		expunged++
	}

	return expunged, <-done
}
