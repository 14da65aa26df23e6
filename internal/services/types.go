package services

import "time"

// Question is one serveable trivia question. IDs are assigned by the store
// on insertion, never by the question source.
type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"question"`
	Choices   []string  `json:"choices"`
	QuizDate  string    `json:"quiz_date,omitempty"` // YYYY-MM-DD; empty when not date-scoped
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Answer records one accepted submission. Answers are immutable once
// stored; they disappear only when a sync wipes their question.
type Answer struct {
	ID             int64     `json:"id"`
	QuestionID     int64     `json:"question_id"`
	UserName       string    `json:"user_name"`
	ParticipantKey string    `json:"-"`
	Text           string    `json:"answer"`
	QuizDay        string    `json:"quiz_day"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Receipt        string    `json:"receipt,omitempty"`
}

// SourceRow is one raw question row from the external spreadsheet, already
// trimmed by the adapter. Choices stays a single delimited string here;
// splitting it is the sync service's concern, not the adapter's.
type SourceRow struct {
	Text    string
	Choices string
	Date    string
}

// QuestionSource lists raw rows from the external spreadsheet. A read
// failure is all-or-nothing; implementations never return partial rows.
type QuestionSource interface {
	ListQuestions() ([]SourceRow, error)
}

// AnswerLog is the external sink accepted answers are reflected into.
// InsertRowAfterHeader and WriteRow are two distinct calls on purpose: a
// structural insert that succeeds followed by a failed write leaves a blank
// row in the log, and readers of the log must tolerate that.
type AnswerLog interface {
	Append(values []string) error
	InsertRowAfterHeader() (int, error)
	WriteRow(rowIndex int, values []string) error
}
