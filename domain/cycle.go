// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/cycle.go -package=mocks . CycleRunner

type CycleState string

const (
	StateIdle             CycleState = "idle"
	StateConnecting       CycleState = "connecting"
	StateFetchingExamples CycleState = "fetching examples"
	StateFetchingMessages CycleState = "fetching messages"
	StateClassifying      CycleState = "classifying"
	StateActing           CycleState = "acting"
	StateSleeping         CycleState = "sleeping"
	StateStopped          CycleState = "stopped"
)

type CycleReport struct {
	CycleId  string
	Started  time.Time
	Duration time.Duration

	Checked  int
	Positive int
	Moved    int
	Tagged   int
	Replied  int
	Failed   int
	Skipped  int

	// subjects of positive messages, for notifications
	PositiveSubjects []string
}

// ProgressFunc is called whenever a cycle enters the next state.
type ProgressFunc func(state CycleState)

type CycleRunner interface {
	RunCycle(ctx context.Context, progress ProgressFunc) (*CycleReport, error)
}
