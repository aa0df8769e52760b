package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/vocadrill/vocadrill/internal/auth/middleware"
	"github.com/vocadrill/vocadrill/internal/quiz"
)

type answerResponse struct {
	Accepted bool               `json:"accepted"`
	Question *quiz.QuestionView `json:"question,omitempty"`
	Summary  *quiz.Summary      `json:"summary,omitempty"`
}

// POST /quiz — configure and start a session.
func StartQuizHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p quiz.StartParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p.StudentID = authmw.SubjectFromContext(r.Context())
		if p.Book == "" {
			http.Error(w, "book required", http.StatusBadRequest)
			return
		}
		s, err := runner.StartQuiz(r.Context(), p)
		switch {
		case errors.Is(err, quiz.ErrEmptyPool):
			http.Error(w, "no words in the selected range", http.StatusBadRequest)
			return
		case errors.Is(err, quiz.ErrBadMode):
			http.Error(w, "mode must be mcq, free or exam", http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, s.View())
	}
}

// GET /quiz/{sessionID} — poll the current view model (or the summary once
// the run is done).
func GetQuizHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, runner)
		if !ok {
			return
		}
		if sum, done := s.Summary(); done {
			writeJSON(w, answerResponse{Accepted: true, Summary: &sum})
			return
		}
		writeJSON(w, s.View())
	}
}

// POST /quiz/{sessionID}/answer — body: {"text": "..."} or {"choice": 1}.
func SubmitAnswerHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, runner)
		if !ok {
			return
		}
		var req struct {
			Text   string `json:"text"`
			Choice *int   `json:"choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var accepted bool
		if req.Choice != nil {
			accepted = s.SubmitChoice(*req.Choice)
		} else {
			accepted = s.SubmitText(req.Text)
		}
		resp := answerResponse{Accepted: accepted}
		if sum, done := s.Summary(); done {
			resp.Summary = &sum
		} else {
			v := s.View()
			resp.Question = &v
		}
		writeJSON(w, resp)
	}
}

// POST /quiz/{sessionID}/input — sync the text typed so far; the countdown
// submits it on expiry.
func BufferInputHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, runner)
		if !ok {
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		s.SetBuffer(req.Text)
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /quiz/{sessionID}/finalize — retry official-exam persistence after
// a failed finalize. The in-memory results are still there.
func RetryFinalizeHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownSession(w, r, runner); !ok {
			return
		}
		sum, err := runner.RetryFinalize(chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, "finalize: "+err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, sum)
	}
}

// DELETE /quiz/{sessionID} — tear the session down (cancels the countdown).
func TeardownQuizHandler(runner *quiz.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownSession(w, r, runner); !ok {
			return
		}
		runner.Remove(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownSession loads the session and enforces that the caller started it.
func ownSession(w http.ResponseWriter, r *http.Request, runner *quiz.Runner) (*quiz.Session, bool) {
	s, err := runner.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if s.StudentID != authmw.SubjectFromContext(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
