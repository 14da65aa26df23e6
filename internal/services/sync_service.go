package services

import (
	"strings"
	"time"
)

// SyncStore abstracts the persistence side of reconciliation.
type SyncStore interface {
	// ReplaceQuestions atomically swaps the stored question set for qs,
	// assigning fresh ids in order. Existing answers are wiped along with
	// the questions they reference.
	ReplaceQuestions(qs []*Question) (int, error)
}

// SyncService reconciles the durable store's question set from the external
// question source. It never writes back to the source.
type SyncService struct {
	source QuestionSource
	store  SyncStore
}

func NewSyncService(source QuestionSource, store SyncStore) *SyncService {
	return &SyncService{source: source, store: store}
}

// Sync fetches every row from the source and replaces the stored question
// set with it. Rows whose prompt is empty after trimming are dropped, never
// stored as blank questions. The replace is all-or-nothing: on any store
// failure the previous question set stays fully callable.
//
// This wipes all existing answers too — a deliberate, destructive reload,
// not an accident. Returns the number of questions loaded.
func (s *SyncService) Sync() (int, error) {
	rows, err := s.source.ListQuestions()
	if err != nil {
		return 0, NewUnavailableError("question source unavailable: " + err.Error())
	}
	qs := make([]*Question, 0, len(rows))
	for _, row := range rows {
		text := strings.TrimSpace(row.Text)
		if text == "" {
			continue
		}
		qs = append(qs, &Question{
			Text:     text,
			Choices:  SplitChoices(row.Choices),
			QuizDate: parseQuizDate(row.Date),
		})
	}
	return s.store.ReplaceQuestions(qs)
}

// SplitChoices splits a comma-delimited choice cell, trimming each part and
// dropping empties. An empty cell means a free-text question and yields an
// empty slice, not nil, so choices round-trip through storage as [].
func SplitChoices(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseQuizDate accepts an optional YYYY-MM-DD cell. Anything that does not
// parse is treated as absent; a malformed date must not block the row.
func parseQuizDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return ""
	}
	return raw
}
