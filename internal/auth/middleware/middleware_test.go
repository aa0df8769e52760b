package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vocadrill/vocadrill/internal/db"
	"github.com/vocadrill/vocadrill/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("stu1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "stu1" || claims.Role != "student" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Issuer != "vocadrill" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	tok, err := NewAuthService("secret-a").IssueJWT("stu1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatal("token signed with another key must not parse")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	tok, _ := a.IssueJWT("t1", "teacher")
	req := httptest.NewRequest("GET", "/books", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotSub != "t1" || gotRole != "teacher" {
		t.Fatalf("context carried %q/%q", gotSub, gotRole)
	}

	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
	} {
		req := httptest.NewRequest("GET", "/books", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestLoginHandler(t *testing.T) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	if err := db.EnsureSchema(context.Background(), conn, db.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
	if _, err := conn.Exec(
		`INSERT INTO users (id, username, role, pass_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
		"u1", "kim", "student", string(hash), time.Now().Unix()); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	a := NewAuthService("test-secret")
	h := LoginHandler(a, conn)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/auth/login",
		strings.NewReader(`{"username":"kim","password":"pw123"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "access_token") {
		t.Fatalf("no token in %s", rec.Body.String())
	}

	for name, body := range map[string]string{
		"wrong password": `{"username":"kim","password":"nope"}`,
		"unknown user":   `{"username":"lee","password":"pw123"}`,
	} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: %d, want 401", name, rec.Code)
		}
	}
}
