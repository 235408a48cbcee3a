package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/session"
)

// StatusSource provides the session state shown in the status bar.
type StatusSource interface {
	Snapshot() session.View
}

// UI is the order prompt: a status bar and an input line at the bottom of
// the terminal. All other output is printed above it via Program.Println /
// Printf, so concurrent writes never garble the display.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely call
// [UI.Println], [UI.Printf], and read from [UI.InputChan] at any time
// after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	status  StatusSource
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(status StatusSource) *UI {
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Falls back to
// fmt.Println before the program starts or after it exits.
func (u *UI) Println(a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
func (u *UI) Printf(format string, a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintInfo prints a normal line.
func (u *UI) PrintInfo(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintOK prints a confirmation.
func (u *UI) PrintOK(text string) {
	u.Println(okStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes a typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("pos") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts add ANSI bytes that break the
	// textinput width math.
	ti.Prompt = "pos> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	m := promptModel{
		status:  u.status,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
	}
	if u.status != nil {
		m.view = u.status.Snapshot()
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type promptModel struct {
	status  StatusSource
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	view    session.View
	width   int
}

type tickMsg time.Time

func (m promptModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

// The bar is refreshed on a short tick so changes made by the command loop
// show up without any coupling between the two.
func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		const promptLen = 5
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		if m.status != nil {
			m.view = m.status.Snapshot()
		}
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(renderStatusBar(m.view, m.width))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

// renderStatusBar draws the one-line session summary.
func renderStatusBar(v session.View, width int) string {
	s := v.Session
	var parts []string

	switch {
	case s.Phase == domain.PhaseIdle:
		parts = append(parts, labelStyle.Render("no order"))
	case s.Phase == domain.PhaseSubmitted:
		parts = append(parts, okStyle.Render("submitted"))
	case s.Mode == domain.ModeAppend:
		label := "append #" + s.OrderID
		if s.Phase == domain.PhaseHydrating {
			label += " (loading)"
		}
		parts = append(parts, valueStyle.Render(label))
	default:
		parts = append(parts, valueStyle.Render("new order"))
	}

	if s.Phase == domain.PhaseBuilding || s.Phase == domain.PhaseHydrating {
		table := s.TableRef
		if table == "" {
			table = "-"
		}
		t := labelStyle.Render("table ") + valueStyle.Render(table)
		if s.TableLocked() {
			t += " " + lockStyle.Render("locked")
		}
		parts = append(parts, t)

		if s.CustomerName != "" {
			parts = append(parts, labelStyle.Render(s.CustomerName))
		}
		if s.Guests > 0 {
			parts = append(parts, labelStyle.Render(plural(s.Guests, "guest")))
		}
		parts = append(parts,
			labelStyle.Render(plural(len(v.Items), "item")),
			labelStyle.Render("total ")+valueStyle.Render(v.Total.StringFixed(2)),
		)
		if v.RemovalLocked {
			parts = append(parts, lockStyle.Render("no removals"))
		}
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
	if width <= 0 {
		width = 80
	}
	return barBg.Width(width).Render(content)
}
