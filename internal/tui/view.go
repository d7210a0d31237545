package tui

import (
	"fmt"
	"strings"
)

// View renders the record screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		titleStyle.Render("barscope"),
		m.renderStatus(),
		m.surface.String(),
	}
	if m.saved != "" {
		sections = append(sections, savedStyle.Render("saved "+m.saved))
	}
	if m.notice != "" {
		sections = append(sections, timeStyle.Render(m.notice+"..."))
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(m.err.Error()))
	}
	sections = append(sections, m.renderHelp())

	return frameStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderStatus() string {
	state := stateStyle.Render(strings.ToUpper(m.state))
	if m.state == "active" {
		state = recordingStyle.Render("● REC")
	}
	return fmt.Sprintf("%s  %s", state, timeStyle.Render(m.elapsed))
}

func (m Model) renderHelp() string {
	if m.state == "idle" {
		return helpStyle.Render("r record  p preview  q quit")
	}
	return helpStyle.Render("enter stop & save  a abort  q quit")
}
