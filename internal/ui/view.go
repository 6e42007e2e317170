package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/syncer/internal/logtail"
	"github.com/five82/syncer/internal/offset"
)

// renderMain renders the full control surface.
func (m Model) renderMain() string {
	parts := []string{
		m.renderHeader(),
		m.renderReadout(),
		m.renderDetails(),
	}
	if m.showLog {
		parts = append(parts, m.renderLogPanel())
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the logo, the on-air light and the mode badge.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	light := styles.OnAirDim.Render("ON AIR")
	if m.onAir() {
		light = styles.OnAirLit.Render("ON AIR")
	}

	parts := []string{styles.Logo.Render("syncer"), light}
	if m.detected {
		parts = append(parts, m.modeBadge(styles))
	}
	if m.busy {
		parts = append(parts, styles.WarningText.Render(m.pending+"…"))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) modeBadge(styles Styles) string {
	mode := m.offset.Mode()
	switch mode {
	case offset.ModeLive:
		return styles.SuccessText.Render(mode.String())
	case offset.ModeHeld:
		return styles.WarningText.Bold(true).Render(mode.String())
	default:
		return styles.InfoText.Render(mode.String())
	}
}

// renderReadout renders the large delay display.
func (m Model) renderReadout() string {
	styles := m.theme.Styles()
	readout := styles.Readout
	if m.failed {
		readout = readout.Foreground(lipgloss.Color(m.theme.Danger))
	}
	box := readout.Render(m.readout())
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
}

// renderDetails renders what is known about the element and the last action.
func (m Model) renderDetails() string {
	styles := m.theme.Styles()
	label := styles.MutedText.Width(9)
	width := max(m.width-12, 20)

	var rows []string
	row := func(name, value string, style lipgloss.Style) {
		rows = append(rows, label.Render(name)+style.Render(value))
	}

	if m.detected {
		row("source", truncateMiddle(m.media.SourceURI, width), styles.Text)
		row("window", formatWindow(m.media.SeekWindowSeconds), styles.Text)
		flags := []string{}
		if m.media.IsPaused {
			flags = append(flags, "paused")
		}
		if m.media.IsMuted {
			flags = append(flags, "muted")
		}
		if !m.media.Seekable {
			flags = append(flags, "not seekable")
		}
		if len(flags) > 0 {
			row("element", strings.Join(flags, ", "), styles.WarningText)
		}
	} else {
		row("source", "no player detected (r to retry)", styles.FaintText)
	}

	switch {
	case m.failed && m.lastErr != nil:
		row("error", truncateMiddle(firstLine(m.lastErr.Error()), width), styles.DangerText)
	case m.notice != "":
		row("last", m.notice, styles.MutedText)
	}
	if m.poll.IsOffline() {
		msg := "browser unreachable"
		if !m.poll.LastUpdated.IsZero() {
			msg = fmt.Sprintf("%s (last attempt %s)", msg, m.poll.LastUpdated.Format("15:04:05"))
		}
		row("poll", msg, styles.WarningText)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(rows, "\n"))
}

// renderLogPanel renders the tail of the log file colored by level.
func (m Model) renderLogPanel() string {
	styles := m.theme.Styles()
	width := max(m.width-2, 20)

	lines := make([]string, 0, len(m.logLines)+1)
	lines = append(lines, styles.AccentText.Bold(true).Render("log")+" "+styles.FaintText.Render(truncateMiddle(m.logPath, width-5)))
	if len(m.logLines) == 0 {
		lines = append(lines, styles.FaintText.Render("(empty)"))
	}
	for _, line := range m.logLines {
		lines = append(lines, m.levelStyle(styles, line.Level).Render(truncateMiddle(line.Text, width)))
	}
	return styles.Panel.Width(m.width).Render(strings.Join(lines, "\n"))
}

func (m Model) levelStyle(styles Styles, level logtail.Level) lipgloss.Style {
	switch level {
	case logtail.LevelError:
		return styles.DangerText
	case logtail.LevelWarn:
		return styles.WarningText
	case logtail.LevelDebug:
		return styles.FaintText
	default:
		return styles.MutedText
	}
}

// renderFooter renders the short key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	hints := []string{"space hold", "g live", "←/→ ∓" + trimFloat(m.nudgeBig), "[/] ∓" + trimFloat(m.nudgeSmall), "? help", "q quit"}
	return styles.Footer.Width(m.width).Render(strings.Join(hints, "  "))
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%gs", v)
}
