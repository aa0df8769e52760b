package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/vocadrill/vocadrill/internal/auth/middleware"
	"github.com/vocadrill/vocadrill/internal/exam"
	"github.com/vocadrill/vocadrill/internal/rbac"
)

// GET /exam-sessions — teacher review list. Students only ever see their
// own rows regardless of the filters they send.
func ListExamSessionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.ListOpts{
			StudentID: r.URL.Query().Get("student_id"),
			Book:      r.URL.Query().Get("book"),
			Status:    r.URL.Query().Get("status"),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if rbac.RoleFromContext(r.Context()) == "student" {
			opts.StudentID = authmw.SubjectFromContext(r.Context())
		}
		list, err := store.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)
	}
}

// GET /exam-sessions/{sessionID} — one session plus its ordered
// per-question review records.
func GetExamSessionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		s, err := store.Get(r.Context(), id)
		if errors.Is(err, exam.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" &&
			s.StudentID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		results, err := store.Results(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"session": s, "results": results})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
