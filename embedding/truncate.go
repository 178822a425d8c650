// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import "unicode/utf8"

// Truncate cuts text to at most maxChars characters. A limit <= 0 disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i]
		}
		count++
	}
	return text
}
