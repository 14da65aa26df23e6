package api

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/questionoftheday/qotd/internal/middleware"
	"github.com/questionoftheday/qotd/internal/services"
	"github.com/questionoftheday/qotd/internal/utils"
)

// DedupPolicy selects what identifies a participant for the
// one-answer-per-day rule.
type DedupPolicy string

const (
	// DedupByName keys on the declared display name, case-folded.
	DedupByName DedupPolicy = "name"
	// DedupByIP keys on the submitter's network origin address.
	DedupByIP DedupPolicy = "ip"
)

// ParseDedupPolicy maps a config value to a policy, defaulting to name.
func ParseDedupPolicy(raw string) DedupPolicy {
	if raw == string(DedupByIP) {
		return DedupByIP
	}
	return DedupByName
}

// AnswerLister is the read side of the admin review endpoint.
type AnswerLister interface {
	ListAnswersByDay(day string) ([]*services.Answer, error)
}

type Router struct {
	questions   *services.QuestionService
	answers     *services.AnswerService
	sync        *services.SyncService
	admin       *services.AdminService
	answerList  AnswerLister
	dedupPolicy DedupPolicy
	offsetHours int
}

var timeNow = func() time.Time { return time.Now().UTC() }

func NewRouter(questions *services.QuestionService, answers *services.AnswerService, sync *services.SyncService, admin *services.AdminService, answerList AnswerLister, dedupPolicy DedupPolicy, offsetHours int) *Router {
	return &Router{
		questions:   questions,
		answers:     answers,
		sync:        sync,
		admin:       admin,
		answerList:  answerList,
		dedupPolicy: dedupPolicy,
		offsetHours: offsetHours,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/question", rt.handleQuestion)   // GET
	mux.HandleFunc("/api/answer", rt.handleAnswer)       // POST
	mux.HandleFunc("/api/admin/login", rt.handleLogin)   // POST
	mux.Handle("/api/sync", middleware.WithAuth(middleware.RequireAdmin(http.HandlerFunc(rt.handleSync))))       // POST
	mux.Handle("/api/answers", middleware.WithAuth(middleware.RequireAdmin(http.HandlerFunc(rt.handleAnswers)))) // GET
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps ServiceError codes to HTTP statuses. Anything else is an
// internal failure: logged in full, reported generically.
func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorUnavailable:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]any{"error": se.Message})
		return
	}
	log.Printf("api: internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}

// GET /api/question — the single current question, or an explicit
// "nothing available" state. Never a synthetic placeholder question.
func (rt *Router) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q, err := rt.questions.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// POST /api/answer — { user_name, answer, question_id }
func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserName   string `json:"user_name"`
		Answer     string `json:"answer"`
		QuestionID int64  `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}
	a, err := rt.answers.Submit(services.SubmitRequest{
		UserName:       req.UserName,
		AnswerText:     req.Answer,
		QuestionID:     req.QuestionID,
		ParticipantKey: rt.participantKey(r, req.UserName),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "receipt": a.Receipt, "submitted_at": a.SubmittedAt})
}

// participantKey derives the dedup key per the configured policy. It must
// be stable for a given submission.
func (rt *Router) participantKey(r *http.Request, userName string) string {
	if rt.dedupPolicy == DedupByIP {
		return clientIP(r)
	}
	return strings.ToLower(strings.TrimSpace(userName))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// POST /api/admin/login — { password } -> { token }
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}
	token, err := rt.admin.Login(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_in": int(rt.admin.TokenTTL().Seconds())})
}

// POST /api/sync — manual reconciliation trigger. Destructive: replaces
// the question set and wipes stored answers.
func (rt *Router) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := rt.sync.Sync()
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("api: manual sync loaded %d questions", n)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
}

// GET /api/answers?day=YYYY-MM-DD — admin review of accepted answers.
// Defaults to today in the configured offset.
func (rt *Router) handleAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	day := r.URL.Query().Get("day")
	if day == "" {
		day = utils.DayKey(timeNow(), rt.offsetHours)
	}
	answers, err := rt.answerList.ListAnswersByDay(day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "answers": answers})
}
