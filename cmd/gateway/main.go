package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vocadrill/vocadrill/internal/analytics"
	api "github.com/vocadrill/vocadrill/internal/api/http"
	auth "github.com/vocadrill/vocadrill/internal/auth/middleware"
	"github.com/vocadrill/vocadrill/internal/config"
	"github.com/vocadrill/vocadrill/internal/db"
	"github.com/vocadrill/vocadrill/internal/exam"
	"github.com/vocadrill/vocadrill/internal/quiz"
	"github.com/vocadrill/vocadrill/internal/rbac"
	"github.com/vocadrill/vocadrill/internal/vocab"
)

func main() {
	cfg := config.FromEnv()
	log := config.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("db open failed")
	}

	words := vocab.NewSQLStore(dbh)
	exams := exam.NewSQLStore(dbh)
	events := analytics.NewRecorder(dbh, log)
	runner := quiz.NewRunner(words, exams, events, log, cfg.MaxQuestions)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		pr.With(rbac.Require("books:view")).
			Get("/books", api.ListBooksHandler(words))
		pr.With(rbac.Require("books:view")).
			Get("/books/{book}/chapters", api.ChapterCountsHandler(words))

		// Student drill flow
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz", api.StartQuizHandler(runner))
		pr.With(rbac.Require("quiz:take")).
			Get("/quiz/{sessionID}", api.GetQuizHandler(runner))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/answer", api.SubmitAnswerHandler(runner))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/input", api.BufferInputHandler(runner))
		pr.With(rbac.Require("quiz:finalize-own")).
			Post("/quiz/{sessionID}/finalize", api.RetryFinalizeHandler(runner))
		pr.With(rbac.Require("quiz:take")).
			Delete("/quiz/{sessionID}", api.TeardownQuizHandler(runner))

		// Teacher surfaces
		pr.With(rbac.Require("words:upload")).
			Post("/words/bulk", api.BulkUpsertWordsHandler(words))
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))

		// Official exam review
		pr.With(rbac.RequireAny("exam:view-own", "exam:view-all")).
			Get("/exam-sessions", api.ListExamSessionsHandler(exams))
		pr.With(rbac.RequireAny("exam:view-own", "exam:view-all")).
			Get("/exam-sessions/{sessionID}", api.GetExamSessionHandler(exams))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.WithField("addr", cfg.HTTPAddr).WithField("mode", string(cfg.Mode)).
		WithField("db", cfg.DBDriver).Info("listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
