// SPDX-License-Identifier: GPL-3.0-or-later
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/log"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Command int

const (
	Start Command = iota
	Stop
	RunNow
	Shutdown
)

func (c Command) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case RunNow:
		return "run now"
	case Shutdown:
		return "shutdown"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Status is a snapshot of the scheduler published to subscribers.
type Status struct {
	State domain.CycleState
	// Enabled is true between Start and Stop
	Enabled    bool
	NextRun    time.Time
	LastReport *domain.CycleReport
	LastError  error
}

// NewSchedule returns a schedule for the cron expression, or one firing every interval when
// expression is empty.
func NewSchedule(interval time.Duration, expression string) (cron.Schedule, error) {
	if len(expression) > 0 {
		schedule, err := cron.ParseStandard(expression)
		if err != nil {
			return nil, fmt.Errorf("could not parse schedule %q: %w", expression, err)
		}
		return schedule, nil
	}

	if interval < time.Second {
		return nil, fmt.Errorf("%w: interval %s is too short", domain.ErrInvalidConfig, interval)
	}
	return cron.Every(interval), nil
}

type cycleResult struct {
	report *domain.CycleReport
	err    error
}

// Scheduler runs triage cycles on a schedule. It is controlled by commands only, a cycle never
// overlaps with another one.
type Scheduler struct {
	runner   domain.CycleRunner
	schedule cron.Schedule

	commands chan Command
	done     chan struct{}

	mu          sync.Mutex
	status      Status
	subscribers []chan Status

	now func() time.Time
	l   *logrus.Logger
}

func NewScheduler(runner domain.CycleRunner, schedule cron.Schedule) *Scheduler {
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		commands: make(chan Command),
		done:     make(chan struct{}),
		status:   Status{State: domain.StateIdle},
		now:      time.Now,
		l:        log.Logger(log.LOG_SCHEDULER),
	}
}

// Post hands cmd to the running scheduler. It returns once the scheduler took the command or
// has terminated.
func (s *Scheduler) Post(cmd Command) {
	select {
	case s.commands <- cmd:
	case <-s.done:
		s.l.WithFields(logrus.Fields{"command": cmd}).Debug("Scheduler terminated, dropping command")
	}
}

func (s *Scheduler) Start()    { s.Post(Start) }
func (s *Scheduler) Stop()     { s.Post(Stop) }
func (s *Scheduler) RunNow()   { s.Post(RunNow) }
func (s *Scheduler) Shutdown() { s.Post(Shutdown) }

// Done is closed when Run returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns a channel receiving the latest status after every change. Slow subscribers
// only miss intermediate snapshots.
func (s *Scheduler) Subscribe() <-chan Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Status, 1)
	ch <- s.status
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) update(f func(status *Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f(&s.status)
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- s.status
	}
}

func (s *Scheduler) setState(state domain.CycleState) {
	s.update(func(status *Status) { status.State = state })
}

// Run processes commands until Shutdown or until ctx is done. A running cycle is cancelled and
// awaited before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	var (
		enabled     bool
		timer       *time.Timer
		timerC      <-chan time.Time
		cycleDone   chan cycleResult
		cancelCycle context.CancelFunc
	)

	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
	}
	arm := func() {
		disarm()
		now := s.now()
		next := s.schedule.Next(now)
		timer = time.NewTimer(next.Sub(now))
		timerC = timer.C
		s.update(func(status *Status) {
			status.State = domain.StateSleeping
			status.NextRun = next
		})
		s.l.WithFields(logrus.Fields{"next": next.Format("15:04:05")}).Debug("Sleeping until next cycle")
	}
	startCycle := func() {
		disarm()
		var cycleCtx context.Context
		cycleCtx, cancelCycle = context.WithCancel(ctx)
		cycleDone = make(chan cycleResult, 1)
		s.update(func(status *Status) { status.NextRun = time.Time{} })

		done := cycleDone
		go func() {
			report, err := s.runner.RunCycle(cycleCtx, s.setState)
			done <- cycleResult{report: report, err: err}
		}()
	}
	terminate := func() {
		disarm()
		if cycleDone != nil {
			cancelCycle()
			s.finishCycle(<-cycleDone)
			cancelCycle = nil
		}
		s.update(func(status *Status) {
			status.State = domain.StateStopped
			status.Enabled = false
			status.NextRun = time.Time{}
		})
	}

	for {
		select {
		case <-ctx.Done():
			terminate()
			return ctx.Err()

		case cmd := <-s.commands:
			s.l.WithFields(logrus.Fields{"command": cmd}).Debug("Received command")
			switch cmd {
			case Start:
				if enabled {
					continue
				}
				enabled = true
				s.update(func(status *Status) { status.Enabled = true })
				if cycleDone == nil {
					startCycle()
				}
				s.l.Info("Started triage")

			case Stop:
				if !enabled && cycleDone == nil {
					continue
				}
				enabled = false
				disarm()
				s.update(func(status *Status) {
					status.Enabled = false
					status.NextRun = time.Time{}
				})
				if cycleDone != nil {
					// honoured at the next state transition of the cycle
					cancelCycle()
				} else {
					s.setState(domain.StateStopped)
				}
				s.l.Info("Stopped triage")

			case RunNow:
				if cycleDone != nil {
					s.l.Info("A cycle is already running")
					continue
				}
				startCycle()

			case Shutdown:
				terminate()
				return nil
			}

		case <-timerC:
			timer, timerC = nil, nil
			s.setState(domain.StateIdle)
			startCycle()

		case result := <-cycleDone:
			cancelCycle()
			cycleDone, cancelCycle = nil, nil
			s.finishCycle(result)
			if enabled {
				arm()
			} else {
				s.setState(domain.StateStopped)
			}
		}
	}
}

func (s *Scheduler) finishCycle(result cycleResult) {
	if result.err != nil {
		if errors.Is(result.err, context.Canceled) {
			s.l.Info("Cycle cancelled")
		} else {
			s.l.WithFields(logrus.Fields{"error": result.err}).Error("Cycle aborted, retrying at next run")
		}
	}

	s.update(func(status *Status) {
		status.LastReport = result.report
		status.LastError = result.err
	})
}
