// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import "strings"

func tagPrefix(tag string) string {
	return "[" + tag + "] "
}

// HasTag reports whether the subject already starts with the tag, ignoring leading whitespace
// and reply/forward markers added by mail clients.
func HasTag(subject, tag string) bool {
	if tag == "" {
		return false
	}
	prefix := strings.TrimSpace(tagPrefix(tag))
	s := strings.TrimSpace(subject)
	for {
		if strings.HasPrefix(s, prefix) {
			return true
		}
		stripped := stripReplyMarker(s)
		if stripped == s {
			return false
		}
		s = stripped
	}
}

func Tag(subject, tag string) string {
	if HasTag(subject, tag) {
		return subject
	}
	return tagPrefix(tag) + strings.TrimSpace(subject)
}

func StripTag(subject, tag string) string {
	if tag == "" {
		return subject
	}
	prefix := strings.TrimSpace(tagPrefix(tag))
	s := strings.TrimSpace(subject)
	for strings.HasPrefix(s, prefix) {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	return s
}

var replyMarkers = []string{"re:", "aw:", "fw:", "fwd:", "wg:"}

func stripReplyMarker(subject string) string {
	lower := strings.ToLower(subject)
	for _, m := range replyMarkers {
		if strings.HasPrefix(lower, m) {
			return strings.TrimSpace(subject[len(m):])
		}
	}
	return subject
}

// ReplySubject prefixes "Re: " unless the subject already is a reply.
func ReplySubject(subject string) string {
	s := strings.TrimSpace(subject)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "re:") || strings.HasPrefix(lower, "aw:") {
		return s
	}
	return "Re: " + s
}

// ClassificationText is the text embedded for both examples and candidates.
func ClassificationText(subject, body, tag string) string {
	return NormalizeWhitespace(StripTag(subject, tag) + "\n" + body)
}
