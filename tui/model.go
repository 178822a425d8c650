// SPDX-License-Identifier: GPL-3.0-or-later
package tui

import (
	"time"

	"github.com/CrawX/go-mail-receptionist/scheduler"

	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of the scheduler the control surface talks to.
type Controller interface {
	Post(cmd scheduler.Command)
	Subscribe() <-chan scheduler.Status
}

type statusMsg scheduler.Status

type tickMsg time.Time

// commandMsg reports a command the scheduler accepted.
type commandMsg scheduler.Command

type Model struct {
	controller Controller
	statuses   <-chan scheduler.Status

	status   scheduler.Status
	last     string
	now      time.Time
	quitting bool
}

func NewModel(controller Controller) Model {
	return Model{
		controller: controller,
		statuses:   controller.Subscribe(),
		now:        time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), tick())
}

func (m Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		status, ok := <-m.statuses
		if !ok {
			return nil
		}
		return statusMsg(status)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) post(cmd scheduler.Command) tea.Cmd {
	return func() tea.Msg {
		m.controller.Post(cmd)
		return commandMsg(cmd)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			return m, m.post(scheduler.Start)
		case "p":
			return m, m.post(scheduler.Stop)
		case "r":
			return m, m.post(scheduler.RunNow)
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case statusMsg:
		m.status = scheduler.Status(msg)
		return m, m.waitForStatus()

	case commandMsg:
		m.last = scheduler.Command(msg).String()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()
	}

	return m, nil
}
