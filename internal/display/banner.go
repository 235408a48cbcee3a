package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

const tagline = "order taking · kitchen board"

// RenderBanner returns the banner art and tagline centred for the current
// terminal width.
func RenderBanner() string {
	return renderBanner(bannerRaw, termWidth())
}

// renderBanner centres the art as one block, so its lines keep their
// relative alignment, and centres the tagline under it.
func renderBanner(art string, width int) string {
	art = strings.TrimRight(art, "\n")
	if art == "" {
		return ""
	}
	lines := strings.Split(art, "\n")

	block := 0
	for _, l := range lines {
		block = max(block, lipgloss.Width(l))
	}

	var b strings.Builder
	pad := strings.Repeat(" ", max(0, (width-block)/2))
	for _, l := range lines {
		b.WriteString(pad)
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", max(0, (width-lipgloss.Width(tagline))/2)))
	b.WriteString(secondaryStyle.Render(tagline))
	b.WriteByte('\n')
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
