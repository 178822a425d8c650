// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HtmlToText returns the visible text of an html document with normalised whitespace.
func HtmlToText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)
	sb := &strings.Builder{}
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return NormalizeWhitespace(sb.String()), nil
			}
			return "", fmt.Errorf("could not tokenize html: %w", err)
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if atom.Lookup(name) == atom.Br {
				sb.WriteString(" ")
			}
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head:
				skip++
			case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr:
				sb.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Td:
				sb.WriteString(" ")
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}
