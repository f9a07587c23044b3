package store

import (
	"fmt"
	"time"
)

// Wall-clock formats used in persisted rows. Times are local to the engine's
// fixed offset; the store never converts zones.
const (
	DateFormat  = "2006-01-02"
	ClockFormat = "15:04:05"
	StampFormat = "2006-01-02 15:04:05"
)

// ActiveTimer is the single running-timer row for one user.
type ActiveTimer struct {
	UserID    int64
	StartTime time.Time
	Category  string
}

// Session is a completed, persisted time interval. Date is the calendar day
// of the session start; Start and Finish are wall-clock times without a date
// (a session may cross midnight, in which case Finish < Start).
type Session struct {
	TimerID  int64
	UserID   int64
	Date     string
	Category string
	Start    string
	Finish   string
	Duration int64 // seconds
	Note     string
}

// StartInstant returns the session start as an instant in loc.
func (s Session) StartInstant(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(StampFormat, s.Date+" "+s.Start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session %d start: %w", s.TimerID, err)
	}
	return t, nil
}

// SessionFilter is used to filter ledger queries.
type SessionFilter struct {
	Category string     // empty = all categories
	From     *time.Time // inclusive lower bound on start instant
	To       *time.Time // exclusive upper bound on start instant
	Limit    int        // 0 = no limit; results are newest first
}

// durationSeconds computes finish-start in seconds from wall-clock strings,
// adding 24h when the interval crosses midnight.
func durationSeconds(start, finish string) (int64, error) {
	st, err := time.Parse(ClockFormat, start)
	if err != nil {
		return 0, fmt.Errorf("parse start time: %w", err)
	}
	fin, err := time.Parse(ClockFormat, finish)
	if err != nil {
		return 0, fmt.Errorf("parse finish time: %w", err)
	}
	d := int64(fin.Sub(st).Seconds())
	if d < 0 {
		d += 24 * 3600
	}
	return d, nil
}
