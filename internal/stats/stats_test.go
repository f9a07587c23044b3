package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/okulov/tempo/internal/store"
)

// The frozen clock for every test in this file.
var testNow = time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

func newAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, func() time.Time { return testNow }), s
}

func record(t *testing.T, s *store.Store, userID int64, cat string, start, stop time.Time) {
	t.Helper()
	if err := s.StartTimer(userID, start, cat); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.StopAndRecord(userID, stop, 0, 86400); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Window resolution
// ============================================================

func TestWindowEmptyLedger(t *testing.T) {
	agg, _ := newAggregator(t)
	if _, err := agg.Totals(1, PeriodDay); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := agg.Series(1, "work", PeriodDay); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestWindowClampedToEarliestRecord(t *testing.T) {
	agg, s := newAggregator(t)

	// First-ever session this morning; the day window would reach back to
	// yesterday afternoon otherwise.
	record(t, s, 1,
		"work",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)

	totals, err := agg.Totals(1, PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	midnight := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !totals.From.Equal(midnight) {
		t.Fatalf("lower bound must be clamped to the first recorded day, got %v", totals.From)
	}
	if totals.WindowSeconds != int64(testNow.Sub(midnight).Seconds()) {
		t.Fatalf("window seconds %d does not match clamped bounds", totals.WindowSeconds)
	}
}

func TestWindowNotClampedForOldLedger(t *testing.T) {
	agg, s := newAggregator(t)

	record(t, s, 1,
		"work",
		time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC),
	)
	record(t, s, 1,
		"work",
		testNow.Add(-2*time.Hour),
		testNow.Add(-time.Hour),
	)

	totals, err := agg.Totals(1, PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	if !totals.From.Equal(testNow.Add(-24 * time.Hour)) {
		t.Fatalf("expected full day window, got from=%v", totals.From)
	}
	// The January session is outside the window.
	if totals.Categories["work"] != 3600 {
		t.Fatalf("expected 3600s, got %d", totals.Categories["work"])
	}
}

func TestAllTimeWindow(t *testing.T) {
	agg, s := newAggregator(t)

	record(t, s, 1,
		"work",
		time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC),
	)

	totals, err := agg.Totals(1, PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	jan1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !totals.From.Equal(jan1) {
		t.Fatalf("all-time must start at the first recorded day, got %v", totals.From)
	}
}

// ============================================================
// Totals
// ============================================================

func TestTotalsClosure(t *testing.T) {
	agg, s := newAggregator(t)

	record(t, s, 1,
		"work",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)
	record(t, s, 1,
		"rest",
		time.Date(2026, time.March, 15, 11, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 11, 30, 0, 0, time.UTC),
	)

	totals, err := agg.Totals(1, PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Categories["work"] != 3600 || totals.Categories["rest"] != 1800 {
		t.Fatalf("unexpected category sums: %v", totals.Categories)
	}

	var recorded int64
	for _, secs := range totals.Categories {
		recorded += secs
	}
	if recorded+totals.Unrecorded != totals.WindowSeconds {
		t.Fatalf("recorded %d + unrecorded %d != window %d",
			recorded, totals.Unrecorded, totals.WindowSeconds)
	}
}

func TestTotalsIsolatedPerUser(t *testing.T) {
	agg, s := newAggregator(t)

	record(t, s, 1,
		"work",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)
	record(t, s, 2,
		"rest",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)

	totals, err := agg.Totals(1, PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := totals.Categories["rest"]; ok {
		t.Fatal("another user's sessions leaked into the totals")
	}
}

func TestTotalsNoSessionsInWindow(t *testing.T) {
	agg, s := newAggregator(t)

	// Ledger has data, but none for user 2.
	record(t, s, 1,
		"work",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)
	if _, err := agg.Totals(2, PeriodDay); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

// ============================================================
// Series
// ============================================================

func TestSeriesUnknownCategory(t *testing.T) {
	agg, _ := newAggregator(t)
	if _, err := agg.Series(1, "napping", PeriodDay); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestSeriesIntervalsAndTotal(t *testing.T) {
	agg, s := newAggregator(t)

	start := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	record(t, s, 1, "work", start, start.Add(time.Hour))
	record(t, s, 1, "rest", start.Add(2*time.Hour), start.Add(3*time.Hour))

	series, err := agg.Series(1, "work", PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	if series.Category != "work" {
		t.Fatalf("wrong category: %s", series.Category)
	}
	if len(series.Intervals) != 1 {
		t.Fatalf("expected 1 work interval, got %d", len(series.Intervals))
	}
	iv := series.Intervals[0]
	if !iv.Start.Equal(start) || !iv.End.Equal(start.Add(time.Hour)) {
		t.Fatalf("unexpected interval: %+v", iv)
	}
	if series.TotalSeconds != 3600 {
		t.Fatalf("expected 3600s total, got %d", series.TotalSeconds)
	}
}

func TestSeriesNoMatchingCategory(t *testing.T) {
	agg, s := newAggregator(t)

	record(t, s, 1,
		"work",
		time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	)
	if _, err := agg.Series(1, "rest", PeriodDay); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestSeriesMidnightCrossingShiftsStart(t *testing.T) {
	agg, s := newAggregator(t)

	// Session crossing into today, stored with start clock > finish clock.
	record(t, s, 1,
		"reading",
		time.Date(2026, time.March, 14, 23, 30, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 0, 10, 0, 0, time.UTC),
	)
	// Anchor session today so the window holds both.
	record(t, s, 1,
		"reading",
		time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC),
	)

	series, err := agg.Series(1, "reading", PeriodDay)
	if err != nil {
		t.Fatal(err)
	}
	for _, iv := range series.Intervals {
		if iv.End.Before(iv.Start) {
			t.Fatalf("interval out of order: %+v", iv)
		}
	}
	// The crossing interval keeps its true 2400s extent.
	var crossing *Interval
	for i := range series.Intervals {
		if series.Intervals[i].End.Sub(series.Intervals[i].Start) == 2400*time.Second {
			crossing = &series.Intervals[i]
		}
	}
	if crossing == nil {
		t.Fatalf("midnight interval missing from %+v", series.Intervals)
	}
}

// ============================================================
// Granularity and boundaries
// ============================================================

func TestGranularityThresholds(t *testing.T) {
	cases := []struct {
		window time.Duration
		want   Granularity
	}{
		{12 * time.Hour, Hourly},
		{24 * time.Hour, Hourly},
		{25 * time.Hour, Daily},
		{7 * 24 * time.Hour, Daily},
		{29 * 24 * time.Hour, Daily},
		{30 * 24 * time.Hour, Weekly},
		{89 * 24 * time.Hour, Weekly},
		{90 * 24 * time.Hour, Monthly},
		{365 * 24 * time.Hour, Monthly},
	}
	for _, c := range cases {
		if got := granularityFor(c.window); got != c.want {
			t.Errorf("granularityFor(%v) = %v, want %v", c.window, got, c.want)
		}
	}
}

func TestHourlyBoundaries(t *testing.T) {
	to := testNow
	bounds := boundaries(Hourly, to.Add(-24*time.Hour), to)

	if len(bounds) != 25 {
		t.Fatalf("expected 25 hourly boundaries, got %d", len(bounds))
	}
	anchor := time.Date(2026, time.March, 15, 14, 0, 0, 0, time.UTC)
	if !bounds[len(bounds)-1].Equal(anchor) {
		t.Fatalf("last boundary must be the current hour, got %v", bounds[24])
	}
	if !bounds[0].Equal(anchor.Add(-24 * time.Hour)) {
		t.Fatalf("first boundary must be 24h before the anchor, got %v", bounds[0])
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Sub(bounds[i-1]) != time.Hour {
			t.Fatal("hourly boundaries must be one hour apart")
		}
	}
}

func TestDailyBoundaries(t *testing.T) {
	from := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	bounds := boundaries(Daily, from, testNow)

	if !bounds[0].Equal(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily boundaries must start at midnight of the lower bound, got %v", bounds[0])
	}
	last := bounds[len(bounds)-1]
	if last.Before(testNow) {
		t.Fatalf("closing boundary %v must cover the window end %v", last, testNow)
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Sub(bounds[i-1]) != 24*time.Hour {
			t.Fatal("daily boundaries must be one day apart")
		}
	}
}

func TestWeeklyBoundaries(t *testing.T) {
	from := testNow.Add(-35 * 24 * time.Hour)
	bounds := boundaries(Weekly, from, testNow)

	for i := 1; i < len(bounds); i++ {
		if bounds[i].Sub(bounds[i-1]) != 7*24*time.Hour {
			t.Fatal("weekly boundaries must be seven days apart")
		}
	}
	if bounds[len(bounds)-1].Before(testNow) {
		t.Fatal("closing boundary must cover the window end")
	}
}

func TestMonthlyBoundaries(t *testing.T) {
	from := time.Date(2025, time.November, 20, 6, 0, 0, 0, time.UTC)
	bounds := boundaries(Monthly, from, testNow)

	if !bounds[0].Equal(time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly boundaries must start at the lower bound's midnight, got %v", bounds[0])
	}
	if bounds[len(bounds)-1].Before(testNow) {
		t.Fatal("closing boundary must cover the window end")
	}
	for i := 1; i < len(bounds); i++ {
		if m := bounds[i].Month(); m == bounds[i-1].Month() && bounds[i].Year() == bounds[i-1].Year() {
			t.Fatal("monthly boundaries must advance the month")
		}
	}
}

func TestPeriodStrings(t *testing.T) {
	want := map[Period]string{
		PeriodDay:   "day",
		PeriodWeek:  "week",
		PeriodMonth: "month",
		PeriodYear:  "year",
		PeriodAll:   "all-time",
	}
	for p, s := range want {
		if p.String() != s {
			t.Errorf("Period(%d).String() = %q, want %q", p, p.String(), s)
		}
	}
	if Period(99).String() != "unknown" {
		t.Error("out-of-range period must stringify as unknown")
	}
}
