// Package stats computes per-category totals and chart series over the
// session ledger. It only reads; all window math happens here, not in SQL.
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/okulov/tempo/internal/category"
	"github.com/okulov/tempo/internal/store"
)

var (
	// ErrNoData is returned when the user has no sessions at all, or none in
	// the selected window and category.
	ErrNoData = errors.New("no recorded sessions")

	// ErrUnknownCategory is returned when the requested category does not
	// resolve to a known label.
	ErrUnknownCategory = errors.New("unknown category")
)

// Period selects the statistics window, measured back from now.
type Period int

const (
	PeriodDay Period = iota
	PeriodWeek
	PeriodMonth
	PeriodYear
	PeriodAll
)

var periodNames = []string{"day", "week", "month", "year", "all-time"}

func (p Period) String() string {
	if p < 0 || int(p) >= len(periodNames) {
		return "unknown"
	}
	return periodNames[p]
}

// Periods lists every selectable window.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

func (p Period) duration() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	case PeriodYear:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// Granularity is the chart bucket width, derived from the window length.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
	Weekly
	Monthly
)

func (g Granularity) String() string {
	return [...]string{"hourly", "daily", "weekly", "monthly"}[g]
}

// Totals is the multi-category aggregation result.
type Totals struct {
	From, To      time.Time
	WindowSeconds int64
	Categories    map[string]int64 // recorded seconds per category
	Unrecorded    int64            // WindowSeconds minus the recorded sum
}

// Interval is one session placed on the bucketed timeline.
type Interval struct {
	TimerID    int64
	Start, End time.Time
}

// Series is the single-category aggregation result used for fine-grained
// plotting.
type Series struct {
	Category     string
	From, To     time.Time
	Granularity  Granularity
	Boundaries   []time.Time
	Intervals    []Interval
	TotalSeconds int64
}

// Aggregator reads the ledger and derives windowed statistics. The clock is
// injected so tests can drive a frozen now.
type Aggregator struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store, now func() time.Time) *Aggregator {
	return &Aggregator{store: s, now: now}
}

// window resolves [from, now) for a user and period. The naive lower bound
// is clamped up to the user's earliest recorded day: a user cannot have
// unrecorded time before their first-ever record.
func (a *Aggregator) window(userID int64, period Period) (time.Time, time.Time, error) {
	now := a.now()

	earliest, err := a.store.EarliestDate(userID, now.Location())
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, time.Time{}, ErrNoData
	}
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	from := earliest
	if d := period.duration(); d > 0 {
		if naive := now.Add(-d); naive.After(earliest) {
			from = naive
		}
	}
	return from, now, nil
}

// Totals sums recorded seconds per category over the period and derives the
// unrecorded remainder. The recorded sums plus Unrecorded always equal
// WindowSeconds.
func (a *Aggregator) Totals(userID int64, period Period) (*Totals, error) {
	from, to, err := a.window(userID, period)
	if err != nil {
		return nil, err
	}

	totals, err := a.store.CategoryTotals(userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate totals: %w", err)
	}
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	windowSecs := int64(to.Sub(from).Seconds())
	var recorded int64
	for _, secs := range totals {
		recorded += secs
	}

	return &Totals{
		From:          from,
		To:            to,
		WindowSeconds: windowSecs,
		Categories:    totals,
		Unrecorded:    windowSecs - recorded,
	}, nil
}

// Series fetches the raw session intervals for one category in the window
// and the bucket boundaries to place them on.
func (a *Aggregator) Series(userID int64, cat string, period Period) (*Series, error) {
	if !category.Valid(cat) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	from, to, err := a.window(userID, period)
	if err != nil {
		return nil, err
	}

	sessions, err := a.store.ListSessions(userID, store.SessionFilter{
		Category: cat,
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate series: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNoData
	}

	series := &Series{
		Category:    cat,
		From:        from,
		To:          to,
		Granularity: granularityFor(to.Sub(from)),
	}
	series.Boundaries = boundaries(series.Granularity, from, to)

	loc := to.Location()
	for _, sess := range sessions {
		start, err := sess.StartInstant(loc)
		if err != nil {
			return nil, err
		}
		finish, err := time.ParseInLocation(store.StampFormat, sess.Date+" "+sess.Finish, loc)
		if err != nil {
			return nil, fmt.Errorf("parse session %d finish: %w", sess.TimerID, err)
		}
		// A session that crossed midnight carries start > finish as wall
		// clocks; shifting the start back a day puts the interval in order.
		if finish.Before(start) {
			start = start.Add(-24 * time.Hour)
		}
		series.Intervals = append(series.Intervals, Interval{
			TimerID: sess.TimerID,
			Start:   start,
			End:     finish,
		})
		series.TotalSeconds += sess.Duration
	}
	return series, nil
}

// granularityFor maps a window length onto a bucket width.
func granularityFor(window time.Duration) Granularity {
	days := window.Hours() / 24
	switch {
	case days <= 1:
		return Hourly
	case days >= 90:
		return Monthly
	case days >= 30:
		return Weekly
	default:
		return Daily
	}
}

// boundaries builds the bucket boundary instants for a window. Hourly
// windows get exactly 25 boundaries anchored to the current hour; the other
// granularities start at the midnight of the lower bound and step until the
// window is closed.
func boundaries(g Granularity, from, to time.Time) []time.Time {
	loc := to.Location()

	if g == Hourly {
		anchor := time.Date(to.Year(), to.Month(), to.Day(), to.Hour(), 0, 0, 0, loc)
		bounds := make([]time.Time, 0, 25)
		for i := 24; i >= 0; i-- {
			bounds = append(bounds, anchor.Add(-time.Duration(i)*time.Hour))
		}
		return bounds
	}

	step := func(t time.Time) time.Time {
		switch g {
		case Weekly:
			return t.AddDate(0, 0, 7)
		case Monthly:
			return t.AddDate(0, 1, 0)
		default:
			return t.AddDate(0, 0, 1)
		}
	}

	b := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	var bounds []time.Time
	for ; b.Before(to); b = step(b) {
		bounds = append(bounds, b)
	}
	// Closing boundary so the final bucket has an upper edge.
	bounds = append(bounds, b)
	return bounds
}
