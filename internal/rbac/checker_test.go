package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "quiz:take", true},
		{"student", "words:upload", false},
		{"student", "exam:view-own", true},
		{"teacher", "words:upload", true},
		{"teacher", "quiz:take", false},
		{"teacher", "exam:view-all", true},
		{"admin", "words:upload", true},
		{"admin", "anything:at-all", true},
		{"", "quiz:take", false},
		{"ghost", "quiz:take", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("teacher", "quiz:take", "words:upload") {
		t.Fatal("teacher should match the second permission")
	}
	if c.Any("student", "words:upload", "users:list") {
		t.Fatal("student matches neither")
	}
}

func TestMatchPermWildcard(t *testing.T) {
	cases := []struct {
		pattern, perm string
		want          bool
	}{
		{"*", "anything", true},
		{"exam:*", "exam:view-own", true},
		{"exam:*", "quiz:take", false},
		{"quiz:take", "quiz:take", true},
		{"quiz:take", "quiz:takeover", false},
	}
	for _, tc := range cases {
		if got := matchPerm(tc.pattern, tc.perm); got != tc.want {
			t.Errorf("matchPerm(%q, %q) = %v, want %v", tc.pattern, tc.perm, got, tc.want)
		}
	}
}

func TestRequireMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Require("words:upload")(next)

	req := httptest.NewRequest("POST", "/words/bulk", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "teacher")))
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher: %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "student")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req) // no role attached
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no role: %d, want 403", rec.Code)
	}
}

func TestRequireAnyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAny("exam:view-own", "exam:view-all")(next)

	for role, want := range map[string]int{
		"student": http.StatusOK,
		"teacher": http.StatusOK,
		"ghost":   http.StatusForbidden,
	} {
		req := httptest.NewRequest("GET", "/exam-sessions", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), role)))
		if rec.Code != want {
			t.Errorf("role %q: %d, want %d", role, rec.Code, want)
		}
	}
}
