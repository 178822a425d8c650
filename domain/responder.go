// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "context"

//go:generate mockgen -destination=mocks/responder.go -package=mocks . Responder,SpamChecker,Notifier

type Responder interface {
	Send(ctx context.Context, original *Message, template string) error
}

type SpamResult struct {
	IsSpam bool
	Score  float64
	Error  error
}

type SpamChecker interface {
	Check(ctx context.Context, rawMail []byte) *SpamResult
}

type Notifier interface {
	Notify(ctx context.Context, report *CycleReport) error
}
