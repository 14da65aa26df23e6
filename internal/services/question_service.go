package services

import (
	"time"

	"github.com/questionoftheday/qotd/internal/utils"
)

// QuestionReader abstracts the read side used to pick today's question.
type QuestionReader interface {
	// CurrentQuestion returns the most recently inserted question whose
	// quiz date is absent or <= today, or nil when none qualifies.
	CurrentQuestion(today string) (*Question, error)
}

// QuestionService exposes the single question to serve "now". Repeated
// calls between syncs return the same record.
type QuestionService struct {
	store       QuestionReader
	now         func() time.Time
	offsetHours int
}

func NewQuestionService(store QuestionReader, offsetHours int) *QuestionService {
	return &QuestionService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		offsetHours: offsetHours,
	}
}

// Current returns today's question, or a not_found ServiceError when the
// question set is empty or nothing qualifies yet. Callers must surface an
// explicit "nothing available" state, never a synthetic question.
func (s *QuestionService) Current() (*Question, error) {
	q, err := s.store.CurrentQuestion(utils.DayKey(s.now(), s.offsetHours))
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("no question available")
	}
	return q, nil
}
