package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okulov/tempo/internal/category"
	"github.com/okulov/tempo/internal/engine"
	"github.com/okulov/tempo/internal/stats"
	"github.com/okulov/tempo/internal/store"
)

func newTestApp(t *testing.T) App {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	now := func() time.Time { return time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC) }
	eng := engine.New(s, stats.New(s, now), now, engine.DefaultPolicy)
	return NewApp(eng, 1)
}

func TestMenuItems(t *testing.T) {
	items := menuItems()
	if len(items) != len(category.Names)+3 {
		t.Fatalf("expected %d items, got %d", len(category.Names)+3, len(items))
	}
	if items[0] != "Start "+category.Names[0]+" timer" {
		t.Fatalf("unexpected first item: %q", items[0])
	}
	last := items[len(items)-1]
	if last != "End" {
		t.Fatalf("unexpected last item: %q", last)
	}
}

func TestApplyReplyMovesState(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.applyReply(engine.Reply{State: engine.StateBrowsing, Text: "2 sessions."})
	got := model.(App)
	if got.state != engine.StateBrowsing {
		t.Fatalf("expected browsing, got %v", got.state)
	}
	if got.status != "2 sessions." || !got.statusOK {
		t.Fatalf("status not applied: %q ok=%v", got.status, got.statusOK)
	}
}

func TestApplyReplyEndedQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.applyReply(engine.Reply{Ended: true})
	if cmd == nil {
		t.Fatal("ended reply must produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ended reply must quit the program")
	}
}

func TestApplyReplyStashesData(t *testing.T) {
	app := newTestApp(t)

	sessions := []store.Session{{TimerID: 1, Category: "work"}}
	model, _ := app.applyReply(engine.Reply{State: engine.StateBrowsing, Sessions: sessions})
	got := model.(App)
	if len(got.sessions) != 1 {
		t.Fatal("sessions not stashed")
	}

	totals := &stats.Totals{Categories: map[string]int64{"work": 3600}}
	model, _ = got.applyReply(engine.Reply{State: engine.StateStatCategory, Totals: totals})
	got = model.(App)
	if got.totals == nil || got.series != nil {
		t.Fatal("totals must replace any series")
	}
}

func TestApplyReplyShowsFormsOnEntry(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.applyReply(engine.Reply{State: engine.StateAwaitingNote})
	got := model.(App)
	if !got.formActive || got.form == nil {
		t.Fatal("entering awaiting-note must open the note form")
	}

	app = newTestApp(t)
	model, _ = app.applyReply(engine.Reply{State: engine.StateEditing})
	got = model.(App)
	if !got.formActive || got.form == nil {
		t.Fatal("entering editing must open the edit form")
	}
}

func TestEditFormReopensAfterRejectedSubmit(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.applyReply(engine.Reply{State: engine.StateEditing})
	got := model.(App)
	if !got.formActive {
		t.Fatal("entering editing must open the form")
	}

	// Submitting tears the form down before the engine answers.
	got.formActive = false
	got.form = nil

	model, _ = got.applyReply(engine.Reply{
		State: engine.StateEditing,
		Err:   engine.ErrMalformedEdit,
		Text:  "malformed edit command. Try again.",
	})
	got = model.(App)
	if !got.formActive || got.form == nil {
		t.Fatal("a rejected edit must bring the form back for a retry")
	}
}

func TestApplyReplyDiscardIsWarning(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.applyReply(engine.Reply{
		State: engine.StateIdle,
		Err:   store.ErrBelowMinDuration,
		Text:  "Only 00:00:05 elapsed. Nothing was recorded.",
	})
	got := model.(App)
	if got.statusOK || !got.statusWarn {
		t.Fatalf("discard must render as a warning: ok=%v warn=%v", got.statusOK, got.statusWarn)
	}

	model, _ = got.applyReply(engine.Reply{
		State: engine.StateIdle,
		Err:   store.ErrNoActiveTimer,
		Text:  "No timer is running.",
	})
	got = model.(App)
	if got.statusWarn {
		t.Fatal("non-policy failures are plain errors, not warnings")
	}
}

func TestExportKeepsConversationState(t *testing.T) {
	app := newTestApp(t)

	app.engine.Handle(1, engine.Start{Category: "work"})

	var exported []store.Session
	cmd := app.doExport(func(sessions []store.Session, _ string) error {
		exported = sessions
		return nil
	}, "csv")
	if _, ok := cmd().(exportDoneMsg); !ok {
		t.Fatal("export must finish cleanly")
	}
	if len(exported) != 0 {
		t.Fatalf("empty ledger must export no rows, got %d", len(exported))
	}
	if app.engine.StateOf(1) != engine.StateRunning {
		t.Fatal("exporting must not move the conversation")
	}
}

func TestViewRendersEveryState(t *testing.T) {
	app := newTestApp(t)
	app.width = 80
	app.height = 24

	states := []engine.State{
		engine.StateIdle, engine.StateRunning, engine.StateBrowsing,
		engine.StateStatCategory, engine.StateStatPeriod,
	}
	for _, st := range states {
		app.state = st
		if out := app.View(); out == "" {
			t.Errorf("state %v renders nothing", st)
		}
	}
}

func TestBucketSecondsClamping(t *testing.T) {
	lo := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	hi := lo.Add(time.Hour)

	intervals := []stats.Interval{
		// Fully inside.
		{Start: lo.Add(10 * time.Minute), End: lo.Add(20 * time.Minute)},
		// Straddles the lower edge, 5 minutes inside.
		{Start: lo.Add(-10 * time.Minute), End: lo.Add(5 * time.Minute)},
		// Straddles the upper edge, 15 minutes inside.
		{Start: hi.Add(-15 * time.Minute), End: hi.Add(30 * time.Minute)},
		// Entirely outside.
		{Start: hi.Add(time.Hour), End: hi.Add(2 * time.Hour)},
	}

	got := bucketSeconds(intervals, lo, hi)
	want := int64((10 + 5 + 15) * 60)
	if got != want {
		t.Fatalf("bucketSeconds = %d, want %d", got, want)
	}
}

func TestBucketLabel(t *testing.T) {
	at := time.Date(2026, time.March, 5, 14, 0, 0, 0, time.UTC)
	if got := bucketLabel(stats.Hourly, at); got != "14" {
		t.Errorf("hourly label = %q", got)
	}
	if got := bucketLabel(stats.Daily, at); got != "05" {
		t.Errorf("daily label = %q", got)
	}
	if got := bucketLabel(stats.Monthly, at); got != "Mar" {
		t.Errorf("monthly label = %q", got)
	}
}

func TestCategoriesOfSorted(t *testing.T) {
	names := categoriesOf(map[string]int64{"work": 1, "exercise": 2, "rest": 3})
	want := []string{"exercise", "rest", "work"}
	for i, n := range names {
		if n != want[i] {
			t.Fatalf("categoriesOf = %v, want %v", names, want)
		}
	}
}
