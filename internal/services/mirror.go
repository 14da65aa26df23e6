package services

import (
	"time"

	"github.com/questionoftheday/qotd/internal/utils"
)

// Placement selects where a reflected answer lands in the answer log.
type Placement string

const (
	// PlacementAppend adds the row at the end of the log.
	PlacementAppend Placement = "append"
	// PlacementInsertTop inserts a blank row below the header, then writes
	// it, so the newest answer is always the first data row.
	PlacementInsertTop Placement = "insert_top"
)

// ParsePlacement maps a config value to a Placement, defaulting to
// insert-at-top.
func ParsePlacement(raw string) Placement {
	if raw == string(PlacementAppend) {
		return PlacementAppend
	}
	return PlacementInsertTop
}

// Mirror projects accepted answers into the external answer log. It runs
// after the answer is committed, best-effort, with no retry loop.
type Mirror struct {
	log         AnswerLog
	placement   Placement
	now         func() time.Time
	offsetHours int
}

func NewMirror(log AnswerLog, placement Placement, offsetHours int) *Mirror {
	return &Mirror{
		log:         log,
		placement:   placement,
		now:         func() time.Time { return time.Now().UTC() },
		offsetHours: offsetHours,
	}
}

// Reflect writes one (user, answer, timestamp, question) row to the log.
// The timestamp is rendered from wall-clock time at the moment of the call,
// in the configured fixed offset.
//
// With insert-at-top placement this is a two-phase protocol: a structural
// insert followed by a value write. When the insert succeeds but the write
// fails, the blank row stays where it is; the next Reflect inserts a fresh
// row at the top rather than reusing it.
func (m *Mirror) Reflect(userName, answerText, questionText string) error {
	row := []string{userName, answerText, utils.FormatTimestamp(m.now(), m.offsetHours), questionText}
	if m.placement == PlacementAppend {
		return m.log.Append(row)
	}
	idx, err := m.log.InsertRowAfterHeader()
	if err != nil {
		return err
	}
	return m.log.WriteRow(idx, row)
}
