// Package notify delivers operator notices to the terminal and, for urgent
// ones, to the speakers.
package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

var _ domain.Notifier = (*CLINotifier)(nil)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#67e8f9"))
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true)
	stampStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
)

// PrintFunc prints one formatted line. display.UI.Printf and the logger's
// Info both fit.
type PrintFunc func(format string, a ...any)

// CLIOption configures a CLINotifier.
type CLIOption func(*CLINotifier)

// WithTimestamps prefixes every notice with the wall time read from c.
func WithTimestamps(c clock.Clock) CLIOption {
	return func(n *CLINotifier) { n.clock = c }
}

// CLINotifier prints notices as styled lines. Urgent notices are marked
// with "!" so they stand out even without colour.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
	clock   clock.Clock // nil: no timestamps
}

// NewCLINotifier creates a terminal notifier. A nil printFn prints to
// stdout.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc, opts ...CLIOption) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	n := &CLINotifier{log: log, printFn: printFn}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notice: %s", message)
	n.printFn("%s%s", n.stamp(), noticeStyle.Render(message))
	return nil
}

func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("urgent notice: %s", message)
	n.printFn("%s%s", n.stamp(), urgentStyle.Render("! "+message))
	return nil
}

func (n *CLINotifier) stamp() string {
	if n.clock == nil {
		return ""
	}
	return stampStyle.Render(n.clock.Now().Format("15:04:05")) + " "
}
