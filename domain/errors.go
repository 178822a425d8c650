// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "errors"

var (
	// ErrMessageGone is returned when a message is neither in its folder nor found at its destination.
	ErrMessageGone = errors.New("message no longer exists")
	// ErrEmptyExamples means one side of the example set has no usable examples.
	ErrEmptyExamples = errors.New("example set is empty")
	// ErrDimensionMismatch is returned when vectors of different lengths are compared.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
