// Package tui provides the interactive Bubble Tea browser over the product
// collection. It renders purely from store snapshots; every intent (search,
// page change, delete) goes through the stores and comes back as a message.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vitrinecli/vitrine/internal/catalog"
	"github.com/vitrinecli/vitrine/internal/session"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	activeStatusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	inactiveStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ── Modes ────────────

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeConfirmDelete
	modeSignedOut
)

// ── Messages ────────────

type refreshedMsg struct{ err error }
type removedMsg struct{ err error }
type sessionEventMsg session.Event
type watchClosedMsg struct{}

// ── Model ────────────

type model struct {
	ctx  context.Context
	sess *session.Store
	cat  *catalog.Store

	view   catalog.View
	cursor int
	mode   mode

	search textinput.Model
	spin   spinner.Model
	pager  paginator.Model

	events <-chan session.Event

	width  int
	height int
	notice string // transient one-shot feedback line
}

// Run starts the browser. It assumes the caller already passed the route
// guard; a session revoked while the browser is open flips it into the
// signed-out screen via the session watcher.
func Run(ctx context.Context, sess *session.Store, cat *catalog.Store) error {
	search := textinput.New()
	search.Placeholder = "filter by title"
	search.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.ActiveDot = "●"
	pager.InactiveDot = "○"

	events, err := sess.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching session: %w", err)
	}

	m := model{
		ctx:    ctx,
		sess:   sess,
		cat:    cat,
		search: search,
		spin:   spin,
		pager:  pager,
		events: events,
		width:  100,
		height: 30,
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd(), m.waitSessionCmd())
}

// ── Commands ────────────

func (m model) fetchCmd() tea.Cmd {
	cat, ctx := m.cat, m.ctx
	return func() tea.Msg { return refreshedMsg{cat.Fetch(ctx)} }
}

func (m model) searchCmd(filter string) tea.Cmd {
	cat, ctx := m.cat, m.ctx
	return func() tea.Msg { return refreshedMsg{cat.Search(ctx, filter)} }
}

func (m model) pageCmd(n int) tea.Cmd {
	cat, ctx := m.cat, m.ctx
	return func() tea.Msg { return refreshedMsg{cat.ChangePage(ctx, n)} }
}

func (m model) removeCmd(id string) tea.Cmd {
	cat, ctx := m.cat, m.ctx
	return func() tea.Msg { return removedMsg{cat.Remove(ctx, id)} }
}

func (m model) waitSessionCmd() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return sessionEventMsg(ev)
	}
}

// ── Update ────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshedMsg:
		m.syncFromStore()
		return m, nil

	case removedMsg:
		m.mode = modeBrowse
		if msg.err == nil {
			m.notice = "product deleted"
			return m, m.fetchCmd()
		}
		m.syncFromStore()
		return m, nil

	case sessionEventMsg:
		if !msg.TokenPresent {
			m.mode = modeSignedOut
			return m, nil
		}
		return m, m.waitSessionCmd()

	case watchClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// syncFromStore pulls a fresh snapshot and keeps cursor/paginator in bounds.
func (m *model) syncFromStore() {
	m.view = m.cat.Snapshot()
	if m.view.TotalPages > 0 {
		m.pager.SetTotalPages(m.view.TotalPages)
		m.pager.Page = m.view.Page - 1
	}
	if m.cursor >= len(m.view.Items) {
		m.cursor = len(m.view.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		switch msg.String() {
		case "enter":
			m.mode = modeBrowse
			m.search.Blur()
			return m, m.searchCmd(m.search.Value())
		case "esc":
			m.mode = modeBrowse
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}

	case modeConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			if m.cursor < len(m.view.Items) {
				return m, m.removeCmd(m.view.Items[m.cursor].ID)
			}
			m.mode = modeBrowse
			return m, nil
		default:
			m.mode = modeBrowse
			return m, nil
		}

	case modeSignedOut:
		return m, tea.Quit
	}

	// modeBrowse
	m.notice = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.view.Filter)
		m.search.Focus()
		return m, textinput.Blink
	case "r":
		return m, m.fetchCmd()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.view.Items)-1 {
			m.cursor++
		}
		return m, nil
	case "left", "h":
		if m.view.Page > 1 {
			return m, m.pageCmd(m.view.Page - 1)
		}
		return m, nil
	case "right", "l":
		if m.view.Page < m.view.TotalPages {
			return m, m.pageCmd(m.view.Page + 1)
		}
		return m, nil
	case "t":
		m.cat.SetSort(catalog.SortTitle)
		m.syncFromStore()
		return m, nil
	case "s":
		m.cat.SetSort(catalog.SortStatus)
		m.syncFromStore()
		return m, nil
	case "u":
		m.cat.SetSort(catalog.SortUpdated)
		m.syncFromStore()
		return m, nil
	case "c":
		m.cat.ClearSort()
		m.syncFromStore()
		return m, nil
	case "d":
		if len(m.view.Items) > 0 {
			m.mode = modeConfirmDelete
		}
		return m, nil
	}
	return m, nil
}

// ── View ────────────

func (m model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("vitrine — products"))
	sb.WriteString("\n\n")

	if m.mode == modeSignedOut {
		sb.WriteString(errorStyle.Render("Session ended."))
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("Run 'vitrine login' to sign in again. Press any key to exit."))
		sb.WriteString("\n")
		return sb.String()
	}

	if m.mode == modeSearch {
		sb.WriteString("Search: " + m.search.View())
	} else if m.view.Filter != "" {
		sb.WriteString(dimStyle.Render("filter: " + m.view.Filter))
	} else {
		sb.WriteString(dimStyle.Render("press / to search"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.renderTable())
	sb.WriteString("\n")

	if m.view.TotalPages > 1 {
		sb.WriteString("  " + m.pager.View())
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  page %d/%d", m.view.Page, m.view.TotalPages)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	sb.WriteString("\n")
	return sb.String()
}

func (m model) renderTable() string {
	titleW := 28
	descW := m.width - titleW - 34
	if descW < 16 {
		descW = 16
	}

	var sb strings.Builder
	header := fmt.Sprintf("  %-*s  %-*s  %-8s  %-16s",
		titleW, "TITLE", descW, "DESCRIPTION", "STATUS", "UPDATED")
	sb.WriteString(headerRowStyle.Render(header))
	sb.WriteString(m.sortIndicator())
	sb.WriteString("\n")

	if len(m.view.Items) == 0 {
		if m.view.Loading {
			sb.WriteString("  " + m.spin.View() + " loading…\n")
		} else {
			sb.WriteString(dimStyle.Render("  no products found") + "\n")
		}
		return sb.String()
	}

	for i, p := range m.view.Items {
		status := inactiveStatusStyle.Render("inactive")
		if p.Status {
			status = activeStatusStyle.Render("active  ")
		}
		updated := ""
		if !p.UpdatedAt.IsZero() {
			updated = p.UpdatedAt.Format("2006-01-02 15:04")
		}
		row := fmt.Sprintf("  %-*s  %-*s  %s  %-16s",
			titleW, truncate(p.Title, titleW),
			descW, truncate(p.Description, descW),
			status, updated)
		if i == m.cursor && m.mode != modeSearch {
			row = selectedRowStyle.Render(row)
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m model) sortIndicator() string {
	if m.view.Sort == nil {
		return ""
	}
	arrow := "↑"
	if m.view.Sort.Desc {
		arrow = "↓"
	}
	return dimStyle.Render(fmt.Sprintf("  sort: %s %s", m.view.Sort.Field, arrow))
}

func (m model) renderStatusBar() string {
	switch {
	case m.mode == modeConfirmDelete:
		if m.cursor < len(m.view.Items) {
			return statusBarStyle.Render(fmt.Sprintf("delete %q? y/n", m.view.Items[m.cursor].Title))
		}
	case m.view.LastError != "":
		return errorStyle.Render("  " + m.view.LastError)
	case m.view.Loading:
		return statusBarStyle.Render(m.spin.View() + " loading…")
	case m.notice != "":
		return statusBarStyle.Render(m.notice)
	}
	return hintStyle.Render("  / search · ←/→ page · t/s/u sort · c clear sort · d delete · r refresh · q quit")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
