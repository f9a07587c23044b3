package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StartTimer inserts the running-timer row for a user. Starting while a timer
// is already active is a no-op: the first write wins and the duplicate is
// discarded silently.
func (s *Store) StartTimer(userID int64, startTime time.Time, category string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO active_timers (user_id, start_time, category) VALUES (?, ?, ?)`,
		userID, startTime.Format(StampFormat), category,
	)
	if err != nil {
		return fmt.Errorf("start timer: %w", err)
	}
	return nil
}

// ActiveTimer returns the running timer for a user, or ErrNoActiveTimer.
func (s *Store) ActiveTimer(userID int64, loc *time.Location) (*ActiveTimer, error) {
	var startStr, category string
	err := s.db.QueryRow(
		`SELECT start_time, category FROM active_timers WHERE user_id = ?`, userID,
	).Scan(&startStr, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveTimer
	}
	if err != nil {
		return nil, fmt.Errorf("get active timer: %w", err)
	}
	start, err := time.ParseInLocation(StampFormat, startStr, loc)
	if err != nil {
		return nil, fmt.Errorf("parse timer start: %w", err)
	}
	return &ActiveTimer{UserID: userID, StartTime: start, Category: category}, nil
}

// StopAndRecord atomically removes the user's running timer and, when the
// elapsed time is within [minDur, maxDur] seconds, appends the completed
// session with the next ledger identifier. Timer removal and session insert
// happen in one transaction, so no other reader can observe the timer gone
// without the session present.
//
// When the elapsed time violates the policy the timer row is still removed,
// no session is written, and ErrBelowMinDuration or ErrAboveMaxDuration is
// returned next to the elapsed seconds.
func (s *Store) StopAndRecord(userID int64, now time.Time, minDur, maxDur int64) (*Session, int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("begin stop: %w", err)
	}
	defer tx.Rollback()

	var startStr, category string
	err = tx.QueryRow(
		`SELECT start_time, category FROM active_timers WHERE user_id = ?`, userID,
	).Scan(&startStr, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNoActiveTimer
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read active timer: %w", err)
	}

	start, err := time.ParseInLocation(StampFormat, startStr, now.Location())
	if err != nil {
		return nil, 0, fmt.Errorf("parse timer start: %w", err)
	}
	elapsed := int64(now.Sub(start).Seconds())

	if _, err := tx.Exec(`DELETE FROM active_timers WHERE user_id = ?`, userID); err != nil {
		return nil, 0, fmt.Errorf("remove active timer: %w", err)
	}

	if elapsed < minDur || elapsed > maxDur {
		// The timer is gone either way; a discarded stop must not leave an
		// orphaned row behind.
		if err := tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("commit discarded stop: %w", err)
		}
		if elapsed < minDur {
			return nil, elapsed, ErrBelowMinDuration
		}
		return nil, elapsed, ErrAboveMaxDuration
	}

	sess := &Session{
		UserID:   userID,
		Date:     start.Format(DateFormat),
		Category: category,
		Start:    start.Format(ClockFormat),
		Finish:   now.Format(ClockFormat),
		Duration: elapsed,
	}
	sess.TimerID, err = insertSession(tx, sess)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit stop: %w", err)
	}
	return sess, elapsed, nil
}
