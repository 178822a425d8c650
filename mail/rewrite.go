// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// RewriteSubject replaces the Subject header of a raw message. All other header fields and the
// body are kept byte for byte.
func RewriteSubject(rawMail []byte, subject string) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(rawMail))
	header, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}

	h := gomail.Header{Header: message.Header{Header: header}}
	h.SetSubject(subject)

	out := &bytes.Buffer{}
	err = textproto.WriteHeader(out, h.Header.Header)
	if err != nil {
		return nil, fmt.Errorf("could not write header: %w", err)
	}

	_, err = io.Copy(out, br)
	if err != nil {
		return nil, fmt.Errorf("could not copy body: %w", err)
	}

	return out.Bytes(), nil
}
