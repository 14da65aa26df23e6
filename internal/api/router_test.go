package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/questionoftheday/qotd/internal/services"
)

type routerAnswerStore struct {
	question *services.Question
	inserted []*services.Answer
	dupKeys  map[string]bool
}

func (s *routerAnswerStore) GetQuestion(id int64) (*services.Question, error) {
	if s.question != nil && s.question.ID == id {
		return s.question, nil
	}
	return nil, nil
}

func (s *routerAnswerStore) InsertAnswer(a *services.Answer) (*services.Answer, error) {
	if s.dupKeys == nil {
		s.dupKeys = map[string]bool{}
	}
	key := a.ParticipantKey + "|" + a.QuizDay
	if s.dupKeys[key] {
		return nil, services.ErrDuplicateAnswer
	}
	s.dupKeys[key] = true
	cp := *a
	cp.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, &cp)
	return &cp, nil
}

type routerQuestionReader struct {
	question *services.Question
}

func (s *routerQuestionReader) CurrentQuestion(today string) (*services.Question, error) {
	return s.question, nil
}

func newTestRouter(store *routerAnswerStore, reader *routerQuestionReader, policy DedupPolicy) *Router {
	return NewRouter(
		services.NewQuestionService(reader, 1),
		services.NewAnswerService(store, nil, 1),
		nil, nil, nil,
		policy, 1,
	)
}

func TestHandleQuestionNotFound(t *testing.T) {
	rt := newTestRouter(&routerAnswerStore{}, &routerQuestionReader{}, DedupByName)
	req := httptest.NewRequest(http.MethodGet, "/api/question", nil)
	rec := httptest.NewRecorder()

	rt.handleQuestion(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected explicit error payload, got %v", body)
	}
}

func TestHandleQuestionReturnsChoices(t *testing.T) {
	reader := &routerQuestionReader{question: &services.Question{ID: 3, Text: "2+2=?", Choices: []string{"3", "4", "5"}}}
	rt := newTestRouter(&routerAnswerStore{}, reader, DedupByName)
	rec := httptest.NewRecorder()

	rt.handleQuestion(rec, httptest.NewRequest(http.MethodGet, "/api/question", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var q services.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if q.ID != 3 || len(q.Choices) != 3 || q.Choices[1] != "4" {
		t.Fatalf("question = %+v", q)
	}
}

func TestHandleAnswerDedupByName(t *testing.T) {
	store := &routerAnswerStore{question: &services.Question{ID: 1, Text: "Q"}}
	rt := newTestRouter(store, &routerQuestionReader{}, DedupByName)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(body))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		rt.handleAnswer(rec, req)
		return rec
	}

	if rec := post(`{"user_name":"Ann","answer":"4","question_id":1}`); rec.Code != http.StatusOK {
		t.Fatalf("first submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	// Same declared name, different case, different address: still a dup.
	if rec := post(`{"user_name":" ANN ","answer":"5","question_id":1}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate submit status = %d, want 409", rec.Code)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("answers stored = %d, want 1", len(store.inserted))
	}
	if store.inserted[0].ParticipantKey != "ann" {
		t.Fatalf("participant key = %q, want ann", store.inserted[0].ParticipantKey)
	}
}

func TestHandleAnswerDedupByIP(t *testing.T) {
	store := &routerAnswerStore{question: &services.Question{ID: 1, Text: "Q"}}
	rt := newTestRouter(store, &routerQuestionReader{}, DedupByIP)

	post := func(name, addr, fwd string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/answer",
			strings.NewReader(`{"user_name":"`+name+`","answer":"4","question_id":1}`))
		req.RemoteAddr = addr
		if fwd != "" {
			req.Header.Set("X-Forwarded-For", fwd)
		}
		rec := httptest.NewRecorder()
		rt.handleAnswer(rec, req)
		return rec
	}

	if rec := post("Ann", "10.0.0.1:5555", ""); rec.Code != http.StatusOK {
		t.Fatalf("first submit status = %d", rec.Code)
	}
	// Different name from the same address is still the same participant.
	if rec := post("Bob", "10.0.0.1:6666", ""); rec.Code != http.StatusConflict {
		t.Fatalf("same-ip submit status = %d, want 409", rec.Code)
	}
	// Proxied client: first X-Forwarded-For entry wins.
	if rec := post("Cat", "10.0.0.1:7777", "203.0.113.9, 10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("forwarded submit status = %d", rec.Code)
	}
	if store.inserted[1].ParticipantKey != "203.0.113.9" {
		t.Fatalf("forwarded key = %q", store.inserted[1].ParticipantKey)
	}
}

func TestHandleAnswerValidation(t *testing.T) {
	store := &routerAnswerStore{question: &services.Question{ID: 1, Text: "Q"}}
	rt := newTestRouter(store, &routerQuestionReader{}, DedupByName)

	req := httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(`{"answer":"4","question_id":1}`))
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	rt.handleAnswer(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(`{"user_name":"Ann","answer":"4","question_id":99}`))
	req.RemoteAddr = "10.0.0.1:5555"
	rec = httptest.NewRecorder()
	rt.handleAnswer(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown question status = %d, want 404", rec.Code)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("answers stored = %d, want 0", len(store.inserted))
	}
}
