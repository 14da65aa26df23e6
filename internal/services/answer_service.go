package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/questionoftheday/qotd/internal/utils"
)

// AnswerStore abstracts persistence for answer admission.
type AnswerStore interface {
	GetQuestion(id int64) (*Question, error)
	// InsertAnswer persists a and returns it with its store-assigned id.
	// Returns ErrDuplicateAnswer when the (participant key, day) uniqueness
	// constraint is violated; the check and the insert are one atomic unit.
	InsertAnswer(a *Answer) (*Answer, error)
}

// Reflector is the downstream mirror an accepted answer is handed to.
type Reflector interface {
	Reflect(userName, answerText, questionText string) error
}

// SubmitRequest carries one sanitized inbound submission.
type SubmitRequest struct {
	UserName       string
	AnswerText     string
	QuestionID     int64
	ParticipantKey string
}

// AnswerService validates submissions, enforces the one-answer-per-
// participant-per-day invariant and persists accepted answers.
type AnswerService struct {
	store       AnswerStore
	mirror      Reflector
	now         func() time.Time
	offsetHours int
	receiptGen  func() string
}

func NewAnswerService(store AnswerStore, mirror Reflector, offsetHours int) *AnswerService {
	return &AnswerService{
		store:       store,
		mirror:      mirror,
		now:         func() time.Time { return time.Now().UTC() },
		offsetHours: offsetHours,
		receiptGen:  defaultReceipt,
	}
}

func defaultReceipt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Submit admits one answer. Validation order: required fields, then
// question existence, then the day-scoped duplicate check (done atomically
// by the store insert). Once the answer is durably stored it is accepted;
// a mirror failure is logged and never surfaced to the submitter.
func (s *AnswerService) Submit(req SubmitRequest) (*Answer, error) {
	name := strings.TrimSpace(req.UserName)
	text := strings.TrimSpace(req.AnswerText)
	key := strings.TrimSpace(req.ParticipantKey)
	if name == "" || text == "" || req.QuestionID <= 0 {
		return nil, NewInvalidError("user_name, answer and question_id are required")
	}
	if key == "" {
		return nil, NewInvalidError("participant key required")
	}

	q, err := s.store.GetQuestion(req.QuestionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}

	now := s.now()
	stored, err := s.store.InsertAnswer(&Answer{
		QuestionID:     q.ID,
		UserName:       name,
		ParticipantKey: key,
		Text:           text,
		QuizDay:        utils.DayKey(now, s.offsetHours),
		SubmittedAt:    now,
		Receipt:        s.receiptGen(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAnswer) {
			return nil, NewConflictError("already answered today")
		}
		return nil, err
	}

	if s.mirror != nil {
		if merr := s.mirror.Reflect(name, text, q.Text); merr != nil {
			log.Printf("answer service: mirror reflect: %v", merr)
		}
	}
	return stored, nil
}
