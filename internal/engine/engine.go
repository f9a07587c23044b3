// Package engine drives the per-user conversational workflow: starting and
// stopping timers, annotating and editing recorded sessions, and serving
// statistics. Every collaborator failure is absorbed here and translated
// into a reply; nothing propagates far enough to take the engine down for
// other users.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okulov/tempo/internal/category"
	"github.com/okulov/tempo/internal/stats"
	"github.com/okulov/tempo/internal/store"
)

// State is a user's position in the conversational workflow.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateAwaitingNote
	StateBrowsing
	StateEditing
	StateStatCategory
	StateStatPeriod
)

func (s State) String() string {
	names := [...]string{
		"idle", "running", "awaiting-note", "browsing", "editing",
		"stat-category", "stat-period",
	}
	if s < 0 || int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

// Reply is the engine's answer to one action: the user's next state, a
// human-readable message, and whatever structured data the transport should
// render. Err carries the refusal kind for callers that need to distinguish
// outcomes; the Text is already phrased for the user.
type Reply struct {
	State    State
	Text     string
	Err      error
	Ended    bool
	Elapsed  int64 // seconds, set on a successful or discarded stop
	Session  *store.Session
	Sessions []store.Session
	Totals   *stats.Totals
	Series   *stats.Series
}

// Policy bounds the recordable session length, in seconds.
type Policy struct {
	MinDuration int64
	MaxDuration int64
}

// DefaultPolicy records everything up to a day long.
var DefaultPolicy = Policy{MinDuration: 0, MaxDuration: 86400}

// Engine is the session state machine. Users are independent: each holds its
// own context and lock, so one user's action never blocks another's.
type Engine struct {
	store  *store.Store
	agg    *stats.Aggregator
	now    func() time.Time
	policy Policy

	mu    sync.Mutex
	users map[int64]*userContext
}

// userContext is the per-user conversational state, created at first contact
// and destroyed by End.
type userContext struct {
	mu           sync.Mutex
	state        State
	statCategory string
}

func New(s *store.Store, agg *stats.Aggregator, now func() time.Time, policy Policy) *Engine {
	return &Engine{
		store:  s,
		agg:    agg,
		now:    now,
		policy: policy,
		users:  make(map[int64]*userContext),
	}
}

// StateOf reports a user's current state. Users with no context are Idle.
func (e *Engine) StateOf(userID int64) State {
	e.mu.Lock()
	ctx, ok := e.users[userID]
	e.mu.Unlock()
	if !ok {
		return StateIdle
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.state
}

// Handle applies one action for one user and returns the reply. It never
// returns an engine-level error: failures come back as replies with Err set.
func (e *Engine) Handle(userID int64, action Action) Reply {
	if _, ok := action.(End); ok {
		e.mu.Lock()
		delete(e.users, userID)
		e.mu.Unlock()
		return Reply{State: StateIdle, Ended: true, Text: "Done. See you next time."}
	}

	e.mu.Lock()
	ctx, ok := e.users[userID]
	if !ok {
		ctx = &userContext{state: StateIdle}
		e.users[userID] = ctx
	}
	e.mu.Unlock()

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	reply := e.dispatch(ctx, userID, action)
	ctx.state = reply.State
	return reply
}

func (e *Engine) dispatch(ctx *userContext, userID int64, action Action) Reply {
	switch ctx.state {
	case StateIdle:
		return e.handleIdle(userID, action)
	case StateRunning:
		return e.handleRunning(userID, action)
	case StateAwaitingNote:
		return e.handleAwaitingNote(userID, action)
	case StateBrowsing:
		return e.handleBrowsing(userID, action)
	case StateEditing:
		return e.handleEditing(userID, action)
	case StateStatCategory:
		return e.handleStatCategory(ctx, userID, action)
	case StateStatPeriod:
		return e.handleStatPeriod(ctx, userID, action)
	}
	return Reply{State: StateIdle, Text: "Let's start over."}
}

func (e *Engine) handleIdle(userID int64, action Action) Reply {
	switch a := action.(type) {
	case Start:
		if !category.Valid(a.Category) {
			return Reply{
				State: StateIdle,
				Err:   stats.ErrUnknownCategory,
				Text:  fmt.Sprintf("%q is not a known category.", a.Category),
			}
		}
		if err := e.store.StartTimer(userID, e.now(), a.Category); err != nil {
			return e.storageFailure(StateIdle, err)
		}
		return Reply{State: StateRunning, Text: fmt.Sprintf("Started the %s timer.", a.Category)}

	case Stop:
		// A stale stop with nothing running.
		return Reply{State: StateIdle, Err: store.ErrNoActiveTimer, Text: "No timer is running."}

	case Browse:
		return e.browse(userID, a.Limit)

	case Stats:
		return Reply{State: StateStatCategory, Text: "Pick a category, or all."}
	}
	return refused(StateIdle)
}

func (e *Engine) handleRunning(userID int64, action Action) Reply {
	switch action.(type) {
	case Stop:
		sess, elapsed, err := e.store.StopAndRecord(userID, e.now(), e.policy.MinDuration, e.policy.MaxDuration)
		switch {
		case errors.Is(err, store.ErrNoActiveTimer):
			return Reply{State: StateIdle, Err: err, Text: "There was no timer to stop."}
		case errors.Is(err, store.ErrBelowMinDuration):
			return Reply{
				State: StateIdle, Err: err, Elapsed: elapsed,
				Text: fmt.Sprintf("Only %s elapsed. Nothing was recorded.", FormatSeconds(elapsed)),
			}
		case errors.Is(err, store.ErrAboveMaxDuration):
			return Reply{
				State: StateIdle, Err: err, Elapsed: elapsed,
				Text: "More than a day elapsed. Nothing was recorded.",
			}
		case err != nil:
			return e.storageFailure(StateIdle, err)
		}
		return Reply{
			State: StateAwaitingNote, Elapsed: elapsed, Session: sess,
			Text: fmt.Sprintf("Timer stopped after %s. Write a note, skip it, or delete the record.",
				FormatSeconds(elapsed)),
		}

	case Start:
		// Duplicate start while running: first write wins, absorbed silently.
		return Reply{State: StateRunning, Text: "A timer is already running."}
	}
	return refused(StateRunning)
}

func (e *Engine) handleAwaitingNote(userID int64, action Action) Reply {
	switch a := action.(type) {
	case Note:
		if err := e.store.UpdateLatestNote(userID, a.Text); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Reply{State: StateIdle, Err: err, Text: "The session is gone; nothing to annotate."}
			}
			return e.storageFailure(StateIdle, err)
		}
		return Reply{State: StateIdle, Text: "Note saved."}

	case Skip:
		return Reply{State: StateIdle, Text: "Saved without a note."}

	case DeleteLast:
		if err := e.store.DeleteLatest(userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Reply{State: StateIdle, Err: err, Text: "The session was already gone."}
			}
			return e.storageFailure(StateIdle, err)
		}
		return Reply{State: StateIdle, Text: "Session deleted."}
	}
	return refused(StateAwaitingNote)
}

func (e *Engine) handleBrowsing(userID int64, action Action) Reply {
	switch a := action.(type) {
	case Browse:
		return e.browse(userID, a.Limit)
	case EditRequest:
		return Reply{
			State: StateEditing,
			Text:  "Send: timer_id HH:MM:SS HH:MM:SS [note]",
		}
	case Back:
		return Reply{State: StateIdle}
	}
	return refused(StateBrowsing)
}

func (e *Engine) handleEditing(userID int64, action Action) Reply {
	switch a := action.(type) {
	case EditSubmit:
		edit, err := ParseEdit(a.Input)
		if err != nil {
			return Reply{State: StateEditing, Err: err, Text: err.Error() + ". Try again."}
		}
		err = e.store.UpdateSession(userID, edit.TimerID, edit.Start, edit.Finish, edit.Note)
		if errors.Is(err, store.ErrNotFound) {
			return Reply{
				State: StateEditing, Err: err,
				Text: fmt.Sprintf("No session %d belongs to you. Try again.", edit.TimerID),
			}
		}
		if err != nil {
			return e.storageFailure(StateBrowsing, err)
		}
		return Reply{State: StateBrowsing, Text: fmt.Sprintf("Session %d updated.", edit.TimerID)}

	case Back:
		return Reply{State: StateBrowsing}
	}
	return refused(StateEditing)
}

func (e *Engine) handleStatCategory(ctx *userContext, userID int64, action Action) Reply {
	switch a := action.(type) {
	case StatCategory:
		if a.Name != category.All && !category.Valid(a.Name) {
			return Reply{
				State: StateStatCategory,
				Err:   stats.ErrUnknownCategory,
				Text:  fmt.Sprintf("%q is not a known category.", a.Name),
			}
		}
		ctx.statCategory = a.Name
		return Reply{State: StateStatPeriod, Text: "Pick a period."}

	case Back:
		return Reply{State: StateIdle}
	}
	return refused(StateStatCategory)
}

func (e *Engine) handleStatPeriod(ctx *userContext, userID int64, action Action) Reply {
	switch a := action.(type) {
	case StatPeriod:
		if ctx.statCategory == category.All {
			totals, err := e.agg.Totals(userID, a.Period)
			if errors.Is(err, stats.ErrNoData) {
				return Reply{State: StateStatCategory, Err: err, Text: "No sessions recorded for that period."}
			}
			if err != nil {
				return e.storageFailure(StateStatCategory, err)
			}
			return Reply{
				State: StateStatCategory, Totals: totals,
				Text: fmt.Sprintf("Totals for %s.", periodPhrase(a.Period)),
			}
		}

		series, err := e.agg.Series(userID, ctx.statCategory, a.Period)
		switch {
		case errors.Is(err, stats.ErrNoData):
			return Reply{State: StateStatCategory, Err: err, Text: "No sessions recorded for that period."}
		case errors.Is(err, stats.ErrUnknownCategory):
			return Reply{State: StateStatCategory, Err: err, Text: "That category is not known."}
		case err != nil:
			return e.storageFailure(StateStatCategory, err)
		}
		return Reply{
			State: StateStatCategory, Series: series,
			Text: fmt.Sprintf("%s for %s: %s total.",
				series.Category, periodPhrase(a.Period), FormatSeconds(series.TotalSeconds)),
		}

	case Back:
		return Reply{State: StateIdle}
	}
	return refused(StateStatPeriod)
}

// Sessions reads a user's ledger, newest first, without touching their
// conversational state. Front ends use it for exports and other plain reads.
func (e *Engine) Sessions(userID int64, limit int) ([]store.Session, error) {
	return e.store.ListSessions(userID, store.SessionFilter{Limit: limit})
}

func (e *Engine) browse(userID int64, limit int) Reply {
	sessions, err := e.store.ListSessions(userID, store.SessionFilter{Limit: limit})
	if err != nil {
		return e.storageFailure(StateIdle, err)
	}
	text := fmt.Sprintf("%d sessions.", len(sessions))
	if len(sessions) == 0 {
		text = "Nothing recorded yet."
	}
	return Reply{State: StateBrowsing, Sessions: sessions, Text: text}
}

// storageFailure drops back to a safe state rather than risking a context
// that disagrees with the database.
func (e *Engine) storageFailure(next State, err error) Reply {
	return Reply{
		State: next,
		Err:   err,
		Text:  "Something went wrong with storage. Please try again.",
	}
}

func refused(current State) Reply {
	return Reply{State: current, Text: "That action is not available right now."}
}

// periodPhrase renders a statistics period for reply text. The all-time
// window is not a "last" anything.
func periodPhrase(p stats.Period) string {
	if p == stats.PeriodAll {
		return "all time"
	}
	return "the last " + p.String()
}

// FormatSeconds renders a second count as HH:MM:SS.
func FormatSeconds(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
