package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/kitchen"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// BoardSource is the part of kitchen.Poller the board drives.
type BoardSource interface {
	Snapshot() kitchen.Snapshot
	Subscribe() <-chan kitchen.Snapshot
	Refresh()
	SortOrder() kitchen.SortOrder
	SetSortOrder(kitchen.SortOrder)
}

// Ticker supplies the once-a-second "now" the board computes ages from.
type Ticker interface {
	C() <-chan time.Time
	Now() time.Time
}

// BoardKeyMap defines the board's key bindings.
type BoardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Sort    key.Binding
	Done    key.Binding
	Quit    key.Binding
}

// DefaultBoardKeyMap returns the default key bindings.
func DefaultBoardKeyMap() BoardKeyMap {
	return BoardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "left", "h"),
			key.WithHelp("↑/k", "prev"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "right", "l"),
			key.WithHelp("↓/j", "next"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort"),
		),
		Done: key.NewBinding(
			key.WithKeys("d", "enter"),
			key.WithHelp("d", "mark done"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Board is the live kitchen board. Run blocks until the user quits.
type Board struct {
	source  BoardSource
	ticker  Ticker
	updater domain.StatusUpdater
	log     *logger.Logger
	program *tea.Program
}

// NewBoard creates a board. updater may be nil, in which case orders
// cannot be marked done from the board.
func NewBoard(source BoardSource, ticker Ticker, updater domain.StatusUpdater, log *logger.Logger) *Board {
	return &Board{source: source, ticker: ticker, updater: updater, log: log}
}

// Run starts the Bubble Tea event loop in the alternate screen.
func (b *Board) Run(ctx context.Context) error {
	m := newBoardModel(b.source.Snapshot(), b.ticker.Now())
	m.source = b.source
	m.snapCh = b.source.Subscribe()
	m.tickCh = b.ticker.C()
	m.updater = b.updater
	m.log = b.log

	b.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := b.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Quit tells Bubble Tea to exit.
func (b *Board) Quit() {
	if b.program != nil {
		b.program.Quit()
	}
}

// ── Bubble Tea model ─────────────────────────────────────────────

type boardModel struct {
	source  BoardSource
	updater domain.StatusUpdater
	log     *logger.Logger
	snapCh  <-chan kitchen.Snapshot
	tickCh  <-chan time.Time
	keys    BoardKeyMap

	snap   kitchen.Snapshot
	now    time.Time
	cursor int
	notice string
	width  int
}

// Messages.
type (
	snapshotMsg kitchen.Snapshot
	nowMsg      time.Time
	noticeMsg   string
)

func newBoardModel(snap kitchen.Snapshot, now time.Time) boardModel {
	return boardModel{snap: snap, now: now, keys: DefaultBoardKeyMap()}
}

func waitSnapshot(ch <-chan kitchen.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func waitTick(ch <-chan time.Time) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return nowMsg(t)
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshot(m.snapCh),
		waitTick(m.tickCh),
		tea.SetWindowTitle("Kitchen"),
	)
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = kitchen.Snapshot(msg)
		m.clampCursor()
		return m, tea.Batch(waitSnapshot(m.snapCh), tea.SetWindowTitle(m.titleStr()))

	case nowMsg:
		m.now = time.Time(msg)
		return m, waitTick(m.tickCh)

	case noticeMsg:
		m.notice = string(msg)
		return m, nil
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Orders)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.source != nil {
			m.source.Refresh()
		}
		m.notice = "refreshing…"

	case key.Matches(msg, m.keys.Sort):
		next := kitchen.SortNewestFirst
		if m.snap.Sort == kitchen.SortNewestFirst {
			next = kitchen.SortOldestFirst
		}
		if m.source != nil {
			m.source.SetSortOrder(next)
		}
		m.notice = "sort: " + next.String() + " first"

	case key.Matches(msg, m.keys.Done):
		if m.updater == nil || len(m.snap.Orders) == 0 {
			return m, nil
		}
		o := m.snap.Orders[m.cursor]
		return m, m.markDone(o.ID)
	}
	return m, nil
}

func (m boardModel) markDone(id string) tea.Cmd {
	updater, source, log := m.updater, m.source, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := updater.UpdateStatus(ctx, id, "completed"); err != nil {
			if log != nil {
				log.Error("marking order %s done: %v", id, err)
			}
			return noticeMsg("could not mark order " + id + " done")
		}
		if source != nil {
			source.Refresh()
		}
		return noticeMsg("order " + id + " done")
	}
}

func (m *boardModel) clampCursor() {
	if m.cursor >= len(m.snap.Orders) {
		m.cursor = len(m.snap.Orders) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m boardModel) titleStr() string {
	if n := m.snap.NewCount(); n > 0 {
		return fmt.Sprintf("(%d) Kitchen", n)
	}
	return "Kitchen"
}

func (m boardModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	if m.snap.Alerting(m.now) {
		b.WriteString(alertStyle.Render("NEW ORDER"))
		b.WriteByte('\n')
	}
	if m.snap.Err != nil {
		b.WriteString(errorBannerStyle.Render(" backend unreachable, showing last data: " + m.snap.Err.Error() + " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if len(m.snap.Orders) == 0 {
		b.WriteString(secondaryStyle.Render("  No open orders."))
		b.WriteByte('\n')
	} else {
		b.WriteString(m.renderCards())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m boardModel) renderHeader() string {
	parts := []string{
		headerStyle.Render("Kitchen"),
		labelStyle.Render(plural(len(m.snap.Orders), "order")),
		labelStyle.Render("sort: ") + valueStyle.Render(m.snap.Sort.String()+" first"),
		labelStyle.Render("updated ") + valueStyle.Render(fmtClock(m.snap.FetchedAt)),
	}
	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func (m boardModel) renderCards() string {
	w := m.width
	if w <= 0 {
		w = 80
	}
	perRow := w / (cardStyle.GetWidth() + 2)
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	var row []string
	for i, o := range m.snap.Orders {
		row = append(row, m.renderCard(o, i == m.cursor))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m boardModel) renderCard(o domain.KitchenOrder, selected bool) string {
	age := o.Age(m.now)
	tier := kitchen.Classify(age)
	color := tierColor(tier)

	title := headerStyle.Render("#" + o.ID)
	if o.Table != "" {
		title += labelStyle.Render("  table ") + valueStyle.Render(o.Table)
	}
	if o.IsNew {
		title += " " + newBadgeStyle.Render("NEW")
	}

	lines := []string{
		title,
		lipgloss.NewStyle().Foreground(color).Bold(tier != kitchen.TierNormal).Render(kitchen.FormatAge(age)),
	}
	for _, it := range o.Items {
		lines = append(lines, primaryStyle.Render(fmt.Sprintf("%d× %s", it.Quantity, it.Name)))
		if it.Notes != "" {
			lines = append(lines, noteStyle.Render("   "+it.Notes))
		}
	}
	if len(o.Items) == 0 {
		lines = append(lines, secondaryStyle.Render("(no items)"))
	}

	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.BorderForeground(color).Render(strings.Join(lines, "\n"))
}

func (m boardModel) renderFooter() string {
	k := m.keys
	help := []string{}
	for _, b := range []key.Binding{k.Up, k.Down, k.Refresh, k.Sort, k.Done, k.Quit} {
		h := b.Help()
		help = append(help, labelStyle.Render(h.Key)+" "+secondaryStyle.Render(h.Desc))
	}
	out := strings.Join(help, sepStyle.Render("  ·  "))
	if m.notice != "" {
		out = okStyle.Render(m.notice) + "   " + out
	}
	return out
}
