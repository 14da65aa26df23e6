package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/questionoftheday/qotd/internal/services"
)

// SQLiteStore is the durable store for questions and answers.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func toNullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func encodeChoices(choices []string) (string, error) {
	if choices == nil {
		choices = []string{}
	}
	b, err := json.Marshal(choices)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeChoices(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode choices: %v", err)
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// ReplaceQuestions deletes the current question set and inserts qs in
// order, all inside one transaction. Answers referencing the old questions
// go with them (ON DELETE CASCADE); readers mid-transaction see either the
// old set or the new one, never a partial mix.
func (s *SQLiteStore) ReplaceQuestions(qs []*services.Question) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("replace questions: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM questions`); err != nil {
		return 0, fmt.Errorf("replace questions: wipe: %w", err)
	}
	now := time.Now().UTC()
	for _, q := range qs {
		var choices string
		choices, err = encodeChoices(q.Choices)
		if err != nil {
			return 0, fmt.Errorf("replace questions: encode choices: %w", err)
		}
		var res sql.Result
		res, err = tx.Exec(`INSERT INTO questions (question, choices, quiz_date, created_at) VALUES (?, ?, ?, ?)`,
			q.Text, choices, toNullString(q.QuizDate), now)
		if err != nil {
			return 0, fmt.Errorf("replace questions: insert: %w", err)
		}
		var id int64
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("replace questions: last insert id: %w", err)
		}
		q.ID = id
		q.CreatedAt = now
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace questions: commit: %w", err)
	}
	return len(qs), nil
}

func scanQuestion(row *sql.Row) (*services.Question, error) {
	var q services.Question
	var choices string
	var quizDate sql.NullString
	if err := row.Scan(&q.ID, &q.Text, &choices, &quizDate, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	q.Choices = decodeChoices(choices)
	q.QuizDate = quizDate.String
	return &q, nil
}

// CurrentQuestion returns the most recently inserted question whose quiz
// date is absent or on/before today, or nil when nothing qualifies.
func (s *SQLiteStore) CurrentQuestion(today string) (*services.Question, error) {
	row := s.db.QueryRow(`SELECT id, question, choices, quiz_date, created_at FROM questions
      WHERE quiz_date IS NULL OR quiz_date = '' OR quiz_date <= ?
      ORDER BY id DESC LIMIT 1`, today)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("current question: %w", err)
	}
	return q, nil
}

// GetQuestion returns the question with the given id, or nil when absent.
func (s *SQLiteStore) GetQuestion(id int64) (*services.Question, error) {
	row := s.db.QueryRow(`SELECT id, question, choices, quiz_date, created_at FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// InsertAnswer persists one answer. The unique index on
// (participant_key, quiz_day) makes the duplicate check and the insert a
// single atomic statement; a violation comes back as ErrDuplicateAnswer.
func (s *SQLiteStore) InsertAnswer(a *services.Answer) (*services.Answer, error) {
	res, err := s.db.Exec(`INSERT INTO answers (question_id, user_name, participant_key, answer, quiz_day, submitted_at)
      VALUES (?, ?, ?, ?, ?, ?)`,
		a.QuestionID, a.UserName, a.ParticipantKey, a.Text, a.QuizDay, a.SubmittedAt)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, services.ErrDuplicateAnswer
		}
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert answer: last insert id: %w", err)
	}
	a.ID = id
	return a, nil
}

// ListAnswersByDay returns the answers accepted on the given day, newest
// first. Used by the admin review endpoint.
func (s *SQLiteStore) ListAnswersByDay(day string) ([]*services.Answer, error) {
	rows, err := s.db.Query(`SELECT id, question_id, user_name, participant_key, answer, quiz_day, submitted_at
      FROM answers WHERE quiz_day = ? ORDER BY id DESC`, day)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListAnswersByDay: rows.Close", cerr)
		}
	}()
	out := []*services.Answer{}
	for rows.Next() {
		var a services.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserName, &a.ParticipantKey, &a.Text, &a.QuizDay, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("list answers: scan: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return out, nil
}

// CountQuestions reports the size of the current question set.
func (s *SQLiteStore) CountQuestions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
