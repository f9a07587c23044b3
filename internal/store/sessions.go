package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// insertSession assigns the next ledger identifier (current maximum across
// all users + 1, seeded at 1) and appends the row. Must run inside the
// caller's transaction so the max-read and the insert are race-free.
func insertSession(tx *sql.Tx, sess *Session) (int64, error) {
	var next int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(timer_id), 0) + 1 FROM sessions`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next timer id: %w", err)
	}
	_, err := tx.Exec(
		`INSERT INTO sessions (timer_id, user_id, date, category, start_time, finish_time, duration, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		next, sess.UserID, sess.Date, sess.Category, sess.Start, sess.Finish, sess.Duration, sess.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return next, nil
}

// AppendSession appends a completed session and returns its identifier.
// Duration is recomputed from the wall-clock fields with the midnight rule.
func (s *Store) AppendSession(sess Session) (int64, error) {
	dur, err := durationSeconds(sess.Start, sess.Finish)
	if err != nil {
		return 0, err
	}
	sess.Duration = dur

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	id, err := insertSession(tx, &sess)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return id, nil
}

const sessionColumns = `timer_id, user_id, date, category, start_time, finish_time, duration, note`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var sess Session
	err := row.Scan(&sess.TimerID, &sess.UserID, &sess.Date, &sess.Category,
		&sess.Start, &sess.Finish, &sess.Duration, &sess.Note)
	return sess, err
}

// ListSessions returns a user's sessions newest first.
func (s *Store) ListSessions(userID int64, f SessionFilter) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ?`
	args := []any{userID}

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.From != nil {
		query += ` AND (date || ' ' || start_time) >= ?`
		args = append(args, f.From.Format(StampFormat))
	}
	if f.To != nil {
		query += ` AND (date || ' ' || start_time) < ?`
		args = append(args, f.To.Format(StampFormat))
	}
	query += ` ORDER BY timer_id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recently appended session for a user.
func (s *Store) LatestSession(userID int64) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY timer_id DESC LIMIT 1`,
		userID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return &sess, nil
}

// UpdateLatestNote attaches a note to the user's most recent session.
func (s *Store) UpdateLatestNote(userID int64, note string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET note = ?
		 WHERE timer_id = (SELECT MAX(timer_id) FROM sessions WHERE user_id = ?)`,
		note, userID,
	)
	if err != nil {
		return fmt.Errorf("update latest note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLatest removes the user's most recent session.
func (s *Store) DeleteLatest(userID int64) error {
	res, err := s.db.Exec(
		`DELETE FROM sessions
		 WHERE timer_id = (SELECT MAX(timer_id) FROM sessions WHERE user_id = ?)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete latest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSession rewrites the start and finish times of one session, owned by
// userID, recomputing the duration with the midnight rule. A nil note leaves
// the existing note untouched. Editing a session that does not exist or
// belongs to another user returns ErrNotFound.
func (s *Store) UpdateSession(userID, timerID int64, start, finish string, note *string) error {
	dur, err := durationSeconds(start, finish)
	if err != nil {
		return err
	}

	var res sql.Result
	if note != nil {
		res, err = s.db.Exec(
			`UPDATE sessions SET start_time = ?, finish_time = ?, duration = ?, note = ?
			 WHERE timer_id = ? AND user_id = ?`,
			start, finish, dur, *note, timerID, userID,
		)
	} else {
		res, err = s.db.Exec(
			`UPDATE sessions SET start_time = ?, finish_time = ?, duration = ?
			 WHERE timer_id = ? AND user_id = ?`,
			start, finish, dur, timerID, userID,
		)
	}
	if err != nil {
		return fmt.Errorf("update session %d: %w", timerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes one session owned by userID.
func (s *Store) DeleteSession(userID, timerID int64) error {
	res, err := s.db.Exec(
		`DELETE FROM sessions WHERE timer_id = ? AND user_id = ?`, timerID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", timerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryTotals sums recorded seconds per category for sessions whose start
// instant falls in [from, to).
func (s *Store) CategoryTotals(userID int64, from, to time.Time) (map[string]int64, error) {
	rows, err := s.db.Query(
		`SELECT category, SUM(duration) FROM sessions
		 WHERE user_id = ?
		   AND (date || ' ' || start_time) >= ?
		   AND (date || ' ' || start_time) < ?
		 GROUP BY category`,
		userID, from.Format(StampFormat), to.Format(StampFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var category string
		var secs int64
		if err := rows.Scan(&category, &secs); err != nil {
			return nil, err
		}
		totals[category] = secs
	}
	return totals, rows.Err()
}

// EarliestDate returns the calendar day of the user's first-ever session,
// at midnight in loc, or ErrNotFound when the ledger has no rows for them.
func (s *Store) EarliestDate(userID int64, loc *time.Location) (time.Time, error) {
	var dateStr sql.NullString
	err := s.db.QueryRow(
		`SELECT MIN(date) FROM sessions WHERE user_id = ?`, userID,
	).Scan(&dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("earliest date: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, ErrNotFound
	}
	t, err := time.ParseInLocation(DateFormat, dateStr.String, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse earliest date: %w", err)
	}
	return t, nil
}

// CountSessions reports how many sessions the user has recorded, ever.
func (s *Store) CountSessions(userID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(
		`SELECT COUNT(timer_id) FROM sessions WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
