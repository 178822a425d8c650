// SPDX-License-Identifier: GPL-3.0-or-later
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(lipgloss.Color("245"))
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	b := &strings.Builder{}
	b.WriteString(titleStyle.Render("Mail Receptionist"))
	b.WriteString("\n\n")

	state := string(m.status.State)
	switch {
	case m.status.State == domain.StateStopped || m.status.State == domain.StateIdle:
		state = stoppedStyle.Render(state)
	default:
		state = activeStyle.Render(state)
	}
	b.WriteString(row("State", state) + "\n")

	triage := stoppedStyle.Render("stopped")
	if m.status.Enabled {
		triage = activeStyle.Render("running")
	}
	b.WriteString(row("Triage", triage) + "\n")

	if !m.status.NextRun.IsZero() {
		wait := m.status.NextRun.Sub(m.now).Truncate(time.Second)
		if wait < 0 {
			wait = 0
		}
		b.WriteString(row("Next run", fmt.Sprintf("%s (in %s)", m.status.NextRun.Format("15:04:05"), wait)) + "\n")
	}

	if r := m.status.LastReport; r != nil {
		b.WriteString(row("Last cycle", fmt.Sprintf("%s, %s", r.Started.Format("15:04:05"), r.Duration.Truncate(time.Millisecond))) + "\n")
		b.WriteString(row("Mails", fmt.Sprintf("%d checked, %d positive, %d moved, %d tagged, %d replied", r.Checked, r.Positive, r.Moved, r.Tagged, r.Replied)) + "\n")
		if r.Failed > 0 || r.Skipped > 0 {
			b.WriteString(row("Problems", errorStyle.Render(fmt.Sprintf("%d failed, %d skipped", r.Failed, r.Skipped))) + "\n")
		}
	}

	if m.status.LastError != nil {
		b.WriteString(row("Last error", errorStyle.Render(m.status.LastError.Error())) + "\n")
	}

	if len(m.last) > 0 {
		b.WriteString(row("Command", m.last) + "\n")
	}

	b.WriteString(footerStyle.Render("s start • p stop • r run now • q quit"))
	b.WriteString("\n")
	return b.String()
}
