package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedEdit is returned when an edit command fails to parse.
var ErrMalformedEdit = errors.New("malformed edit command")

// Edit is a parsed edit command.
type Edit struct {
	TimerID int64
	Start   string // HH:MM:SS
	Finish  string // HH:MM:SS
	Note    *string
}

// ParseEdit parses "timer_id HH:MM:SS HH:MM:SS [note...]". The first three
// tokens are mandatory; anything after them is joined into the note. A
// missing note leaves the stored note untouched.
func ParseEdit(input string) (Edit, error) {
	fields := strings.Fields(input)
	if len(fields) < 3 {
		return Edit{}, fmt.Errorf("%w: want timer_id start finish, got %d tokens",
			ErrMalformedEdit, len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Edit{}, fmt.Errorf("%w: bad timer id %q", ErrMalformedEdit, fields[0])
	}

	start, err := parseClock(fields[1])
	if err != nil {
		return Edit{}, err
	}
	finish, err := parseClock(fields[2])
	if err != nil {
		return Edit{}, err
	}

	edit := Edit{TimerID: id, Start: start, Finish: finish}
	if len(fields) > 3 {
		note := strings.Join(fields[3:], " ")
		edit.Note = &note
	}
	return edit, nil
}

func parseClock(tok string) (string, error) {
	t, err := time.Parse("15:04:05", tok)
	if err != nil {
		return "", fmt.Errorf("%w: bad time %q", ErrMalformedEdit, tok)
	}
	return t.Format("15:04:05"), nil
}
