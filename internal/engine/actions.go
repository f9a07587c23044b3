package engine

import "github.com/okulov/tempo/internal/stats"

// Action is a semantic user action delivered by the transport. The exact
// button or command text that produced it is a presentation concern.
type Action interface{ isAction() }

// Start begins a timer in the given category.
type Start struct{ Category string }

// Stop halts the running timer and records the session.
type Stop struct{}

// Note attaches free text to the session that was just stopped.
type Note struct{ Text string }

// Skip leaves the just-stopped session without a note.
type Skip struct{}

// DeleteLast removes the session that was just stopped.
type DeleteLast struct{}

// Browse lists the user's latest sessions. Limit 0 means all of them.
type Browse struct{ Limit int }

// EditRequest moves from browsing into the edit prompt.
type EditRequest struct{}

// EditSubmit carries the textual edit command:
// "timer_id HH:MM:SS HH:MM:SS [note...]".
type EditSubmit struct{ Input string }

// Stats enters the statistics branch.
type Stats struct{}

// StatCategory picks a single category, or "all", for statistics.
type StatCategory struct{ Name string }

// StatPeriod picks the statistics window and runs the aggregation.
type StatPeriod struct{ Period stats.Period }

// Back returns to the previous menu level.
type Back struct{}

// End terminates the conversation and destroys the per-user context.
type End struct{}

func (Start) isAction()        {}
func (Stop) isAction()         {}
func (Note) isAction()         {}
func (Skip) isAction()         {}
func (DeleteLast) isAction()   {}
func (Browse) isAction()       {}
func (EditRequest) isAction()  {}
func (EditSubmit) isAction()   {}
func (Stats) isAction()        {}
func (StatCategory) isAction() {}
func (StatPeriod) isAction()   {}
func (Back) isAction()         {}
func (End) isAction()          {}
