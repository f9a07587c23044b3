package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/okulov/tempo/internal/engine"
	"github.com/okulov/tempo/internal/stats"
)

func (a App) panelWidth() int {
	w := a.width - 4
	if w < 24 {
		w = 24
	}
	return w
}

func (a App) viewMenu() string {
	items := menuItems()
	rows := []string{titleStyle.Render("What now?"), ""}
	for i, item := range items {
		cursor := "  "
		style := normalItemStyle
		if i == a.menuCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+item))
	}
	return panelStyle.Width(a.panelWidth()).Render(strings.Join(rows, "\n"))
}

func (a App) viewRunning() string {
	elapsed := time.Since(a.runningSince)
	rows := []string{
		titleStyle.Render("Timer running"),
		"",
		timerRunningStyle.Width(a.panelWidth() - 6).Render(engine.FormatSeconds(int64(elapsed.Seconds()))),
		"",
		mutedStyle.Render("  x or enter: stop"),
	}
	return panelStyle.Width(a.panelWidth()).Render(strings.Join(rows, "\n"))
}

func (a App) viewForm() string {
	if a.form == nil {
		return panelStyle.Width(a.panelWidth()).Render(mutedStyle.Render(a.status))
	}
	return panelStyle.Width(a.panelWidth()).Render(a.form.View())
}

func (a App) viewBrowse() string {
	w := a.panelWidth()
	rows := []string{titleStyle.Render("Sessions"), ""}

	if len(a.sessions) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing recorded yet"))
	} else {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-5s %-11s %-9s %-9s %-9s %9s  %s",
			"ID", "Date", "Category", "Start", "Finish", "Duration", "Note")))
		rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 70))))
		for _, s := range a.sessions {
			rows = append(rows, fmt.Sprintf("  %-5d %-11s %-9s %-9s %-9s %9s  %s",
				s.TimerID, s.Date, s.Category, s.Start, s.Finish,
				engine.FormatSeconds(s.Duration), s.Note))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  1/5/0/a: scope  e: edit  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (a App) viewPeriodPicker() string {
	rows := []string{titleStyle.Render("Period"), ""}
	for i, p := range stats.Periods {
		cursor := "  "
		style := normalItemStyle
		if i == a.periodCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+p.String()))
	}
	return panelStyle.Width(a.panelWidth()).Render(strings.Join(rows, "\n"))
}

// viewStats shows the category picker with the latest aggregation result, if
// any, charted beneath it.
func (a App) viewStats() string {
	w := a.panelWidth()
	items := statCategories()

	rows := []string{titleStyle.Render("Statistics"), ""}
	for i, item := range items {
		cursor := "  "
		style := normalItemStyle
		if i == a.statCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+item))
	}

	switch {
	case a.totals != nil:
		rows = append(rows, "", a.renderTotals(w))
	case a.series != nil:
		rows = append(rows, "", a.renderSeries(w))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

var chartColors = []lipgloss.Color{
	colorPrimary, colorSuccess, colorWarning, colorHighlight,
	colorError, "#2EC4B6", "#FF6B6B", "#9ECE6A", colorSubtle,
}

func (a App) renderTotals(w int) string {
	t := a.totals

	chart := barchart.New(min(w-6, 60), 10)
	var bars []barchart.BarData
	i := 0
	for _, name := range append(categoriesOf(t.Categories), "unrecorded") {
		secs, ok := t.Categories[name]
		if name == "unrecorded" {
			secs, ok = t.Unrecorded, true
		}
		if !ok {
			continue
		}
		style := lipgloss.NewStyle().Foreground(chartColors[i%len(chartColors)])
		bars = append(bars, barchart.BarData{
			Label: name,
			Values: []barchart.BarValue{
				{Name: name, Value: float64(secs) / 3600.0, Style: style},
			},
		})
		i++
	}
	chart.PushAll(bars)
	chart.Draw()

	var lines []string
	lines = append(lines, chart.View())
	for _, name := range categoriesOf(t.Categories) {
		lines = append(lines, fmt.Sprintf("  %-10s %s", name, engine.FormatSeconds(t.Categories[name])))
	}
	lines = append(lines, fmt.Sprintf("  %-10s %s", "unrecorded", engine.FormatSeconds(t.Unrecorded)))
	return strings.Join(lines, "\n")
}

func (a App) renderSeries(w int) string {
	s := a.series

	chart := barchart.New(min(w-6, 60), 10)
	var bars []barchart.BarData
	style := lipgloss.NewStyle().Foreground(colorPrimary)
	for i := 0; i+1 < len(s.Boundaries); i++ {
		lo, hi := s.Boundaries[i], s.Boundaries[i+1]
		secs := bucketSeconds(s.Intervals, lo, hi)
		bars = append(bars, barchart.BarData{
			Label: bucketLabel(s.Granularity, lo),
			Values: []barchart.BarValue{
				{Name: s.Category, Value: float64(secs) / 3600.0, Style: style},
			},
		})
	}
	chart.PushAll(bars)
	chart.Draw()

	total := fmt.Sprintf("  %s total: %s", s.Category, engine.FormatSeconds(s.TotalSeconds))
	return chart.View() + "\n" + highlightStyle.Render(total)
}

// bucketSeconds sums the overlap of every interval with [lo, hi).
func bucketSeconds(intervals []stats.Interval, lo, hi time.Time) int64 {
	var total int64
	for _, iv := range intervals {
		start, end := iv.Start, iv.End
		if start.Before(lo) {
			start = lo
		}
		if end.After(hi) {
			end = hi
		}
		if end.After(start) {
			total += int64(end.Sub(start).Seconds())
		}
	}
	return total
}

func bucketLabel(g stats.Granularity, t time.Time) string {
	switch g {
	case stats.Hourly:
		return t.Format("15")
	case stats.Monthly:
		return t.Format("Jan")
	default:
		return t.Format("02")
	}
}

// categoriesOf returns map keys in a stable order.
func categoriesOf(m map[string]int64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
