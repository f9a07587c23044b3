// Package tui is the local front end for one user: it translates keystrokes
// into engine actions and renders the engine's replies. It never touches the
// store directly.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/okulov/tempo/internal/category"
	"github.com/okulov/tempo/internal/engine"
	"github.com/okulov/tempo/internal/export"
	"github.com/okulov/tempo/internal/stats"
	"github.com/okulov/tempo/internal/store"
)

type replyMsg struct {
	reply engine.Reply
}

type exportDoneMsg struct {
	path string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// App is the root Bubble Tea model. Its view follows the engine's per-user
// state; all data it shows arrived in an engine reply.
type App struct {
	engine *engine.Engine
	userID int64
	width  int
	height int

	state      engine.State
	status     string
	statusOK   bool
	statusWarn bool

	// Running-timer display. The engine owns the authoritative timestamps;
	// this is only for the live readout.
	runningSince time.Time

	menuCursor   int
	statCursor   int
	periodCursor int
	sessions     []store.Session
	totals       *stats.Totals
	series       *stats.Series

	form       *huh.Form
	formValue  *string
	formActive bool

	help     help.Model
	showHelp bool
}

func NewApp(e *engine.Engine, userID int64) App {
	h := help.New()
	h.ShowAll = false

	return App{
		engine:   e,
		userID:   userID,
		state:    engine.StateIdle,
		statusOK: true,
		help:     h,
	}
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// send runs one engine action off the update loop.
func (a App) send(action engine.Action) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{reply: a.engine.Handle(a.userID, action)}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tickMsg:
		return a, tickCmd()

	case replyMsg:
		return a.applyReply(msg.reply)

	case statusMsg:
		a.status = msg.text
		a.statusOK = !msg.isError
		a.statusWarn = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusOK = true
		a.statusWarn = false
		return a, nil

	case tea.KeyMsg:
		if a.formActive {
			return a.updateForm(msg)
		}
		return a.handleKey(msg)
	}

	if a.formActive {
		return a.updateForm(msg)
	}
	return a, nil
}

// applyReply moves the view to the engine's next state and stashes whatever
// the reply carried.
func (a App) applyReply(r engine.Reply) (tea.Model, tea.Cmd) {
	if r.Ended {
		return a, tea.Quit
	}

	prev := a.state
	a.state = r.State
	if r.Text != "" {
		a.status = r.Text
		a.statusOK = r.Err == nil
		// A discarded stop is a warning, not a failure.
		a.statusWarn = errors.Is(r.Err, store.ErrBelowMinDuration) ||
			errors.Is(r.Err, store.ErrAboveMaxDuration)
	}
	if r.Sessions != nil {
		a.sessions = r.Sessions
	}
	if r.Totals != nil {
		a.totals = r.Totals
		a.series = nil
	}
	if r.Series != nil {
		a.series = r.Series
		a.totals = nil
	}

	var cmd tea.Cmd
	switch {
	case a.state == engine.StateRunning && prev != engine.StateRunning:
		a.runningSince = time.Now()
	case a.state == engine.StateAwaitingNote && prev != engine.StateAwaitingNote:
		a, cmd = a.showNoteForm()
	case a.state == engine.StateEditing && (prev != engine.StateEditing || !a.formActive):
		// A rejected edit keeps the user here; bring the form back so they
		// can retry without leaving.
		a, cmd = a.showEditForm()
	}
	if a.state != engine.StateStatCategory && a.state != engine.StateStatPeriod {
		a.statCursor = 0
		a.periodCursor = 0
	}
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Help) {
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	}
	if key.Matches(msg, keys.Quit) {
		return a, a.send(engine.End{})
	}

	switch a.state {
	case engine.StateIdle:
		return a.updateMenu(msg)
	case engine.StateRunning:
		if key.Matches(msg, keys.Stop) || key.Matches(msg, keys.Enter) {
			return a, a.send(engine.Stop{})
		}
	case engine.StateAwaitingNote:
		if key.Matches(msg, keys.Delete) {
			return a, a.send(engine.DeleteLast{})
		}
	case engine.StateBrowsing:
		return a.updateBrowse(msg)
	case engine.StateEditing:
		if key.Matches(msg, keys.Back) {
			return a, a.send(engine.Back{})
		}
	case engine.StateStatCategory:
		return a.updateStatCategory(msg)
	case engine.StateStatPeriod:
		return a.updateStatPeriod(msg)
	}
	return a, nil
}

// menuItems is the Idle menu: one entry per category, then the ledger and
// statistics branches.
func menuItems() []string {
	items := make([]string, 0, len(category.Names)+3)
	for _, c := range category.Names {
		items = append(items, "Start "+c+" timer")
	}
	return append(items, "Browse sessions", "Statistics", "End")
}

func (a App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := menuItems()
	switch {
	case key.Matches(msg, keys.Up):
		if a.menuCursor > 0 {
			a.menuCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.menuCursor < len(items)-1 {
			a.menuCursor++
		}
	case key.Matches(msg, keys.Export):
		return a.pickExport()
	case key.Matches(msg, keys.Enter):
		switch {
		case a.menuCursor < len(category.Names):
			return a, a.send(engine.Start{Category: category.Names[a.menuCursor]})
		case a.menuCursor == len(category.Names):
			return a, a.send(engine.Browse{Limit: 10})
		case a.menuCursor == len(category.Names)+1:
			return a, a.send(engine.Stats{})
		default:
			return a, a.send(engine.End{})
		}
	}
	return a, nil
}

func (a App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		return a, a.send(engine.Back{})
	case key.Matches(msg, keys.Edit):
		return a, a.send(engine.EditRequest{})
	case key.Matches(msg, keys.Latest1):
		return a, a.send(engine.Browse{Limit: 1})
	case key.Matches(msg, keys.Latest5):
		return a, a.send(engine.Browse{Limit: 5})
	case key.Matches(msg, keys.Latest10):
		return a, a.send(engine.Browse{Limit: 10})
	case key.Matches(msg, keys.AllRows):
		return a, a.send(engine.Browse{Limit: 0})
	}
	return a, nil
}

func statCategories() []string {
	return append([]string{category.All}, category.Names...)
}

func (a App) updateStatCategory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := statCategories()
	switch {
	case key.Matches(msg, keys.Back):
		return a, a.send(engine.Back{})
	case key.Matches(msg, keys.Up):
		if a.statCursor > 0 {
			a.statCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.statCursor < len(items)-1 {
			a.statCursor++
		}
	case key.Matches(msg, keys.Enter):
		return a, a.send(engine.StatCategory{Name: items[a.statCursor]})
	}
	return a, nil
}

func (a App) updateStatPeriod(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		return a, a.send(engine.Back{})
	case key.Matches(msg, keys.Up):
		if a.periodCursor > 0 {
			a.periodCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.periodCursor < len(stats.Periods)-1 {
			a.periodCursor++
		}
	case key.Matches(msg, keys.Enter):
		return a, a.send(engine.StatPeriod{Period: stats.Periods[a.periodCursor]})
	}
	return a, nil
}

// --- Forms ---

func (a App) showNoteForm() (App, tea.Cmd) {
	val := ""
	a.formValue = &val
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Note").
				Description("Leave empty to skip; press d after esc to delete").
				Value(a.formValue),
		),
	).WithShowHelp(false).WithShowErrors(true)
	a.formActive = true
	return a, a.form.Init()
}

func (a App) showEditForm() (App, tea.Cmd) {
	val := ""
	a.formValue = &val
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Edit session").
				Description("timer_id HH:MM:SS HH:MM:SS [note]").
				Value(a.formValue),
		),
	).WithShowHelp(false).WithShowErrors(true)
	a.formActive = true
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.formActive = false
		a.form = nil
		if a.state == engine.StateAwaitingNote {
			// Cancelling the note form keeps the engine in AwaitingNote so
			// the user can still delete the session.
			return a, nil
		}
		return a, a.send(engine.Back{})
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.formActive = false
		value := *a.formValue
		a.form = nil
		switch a.state {
		case engine.StateAwaitingNote:
			if value == "" {
				return a, a.send(engine.Skip{})
			}
			return a, a.send(engine.Note{Text: value})
		case engine.StateEditing:
			return a, a.send(engine.EditSubmit{Input: value})
		}
	}
	return a, cmd
}

// --- Export ---

// pickExport dumps the ledger to CSV; JSON is available through the export
// subcommand.
func (a App) pickExport() (tea.Model, tea.Cmd) {
	return a, a.doExport(export.ToCSV, "csv")
}

func (a App) doExport(exporter func([]store.Session, string) error, ext string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.engine.Sessions(a.userID, 0)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		path := filepath.Join(home, fmt.Sprintf("tempo-export-%s.%s", time.Now().Format("2006-01-02"), ext))
		if err := exporter(sessions, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

// --- View ---

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.state {
	case engine.StateIdle:
		content = a.viewMenu()
	case engine.StateRunning:
		content = a.viewRunning()
	case engine.StateAwaitingNote, engine.StateEditing:
		content = a.viewForm()
	case engine.StateBrowsing:
		content = a.viewBrowse()
	case engine.StateStatCategory:
		content = a.viewStats()
	case engine.StateStatPeriod:
		content = a.viewPeriodPicker()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tempo")
	state := mutedStyle.Render(" · " + a.state.String())
	return headerStyle.Render(title + state)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		switch {
		case a.statusOK:
			status = mutedStyle.Render(" " + a.status)
		case a.statusWarn:
			status = warningStyle.Render(" " + a.status)
		default:
			status = errorStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.state == engine.StateRunning {
		elapsed := time.Since(a.runningSince)
		timerInfo = successStyle.Render(" ● " + engine.FormatSeconds(int64(elapsed.Seconds())))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
