// Package display provides the terminal front ends using Bubble Tea: the
// kitchen board and the order prompt.
package display

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottopos/internal/kitchen"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	lockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Bold(true)

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#bbf7d0"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))

	// Board.

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e4e4e7"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(34)

	selectedCardStyle = cardStyle.
				BorderStyle(lipgloss.ThickBorder())

	newBadgeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#22c55e")).
			Foreground(lipgloss.Color("#052e16")).
			Bold(true).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#dc2626")).
			Foreground(lipgloss.Color("#fef2f2")).
			Bold(true).
			Padding(0, 2)

	errorBannerStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#451a03")).
				Foreground(lipgloss.Color("#fed7aa"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa")).
			Italic(true)
)

// tierColor maps urgency to a border/age colour.
func tierColor(t kitchen.Tier) lipgloss.Color {
	switch t {
	case kitchen.TierUrgent:
		return lipgloss.Color("#ef4444")
	case kitchen.TierAttention:
		return lipgloss.Color("#f59e0b")
	default:
		return lipgloss.Color("#52525b")
	}
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtClock(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("15:04:05")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
