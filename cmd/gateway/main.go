package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/opencampus/admissions/internal/api/http"
	"github.com/opencampus/admissions/internal/audit"
	auth "github.com/opencampus/admissions/internal/auth/middleware"
	"github.com/opencampus/admissions/internal/config"
	"github.com/opencampus/admissions/internal/db"
	"github.com/opencampus/admissions/internal/enrollment"
	"github.com/opencampus/admissions/internal/exam"
	"github.com/opencampus/admissions/internal/grading"
	"github.com/opencampus/admissions/internal/rbac"
	"github.com/opencampus/admissions/internal/session"
	"github.com/opencampus/admissions/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	if err := auth.EnsureAdmin(dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	enrollments := enrollment.NewSQLStore(dbh)
	exams := exam.NewSQLStore(dbh)
	sessions := session.NewSQLStore(dbh)
	events := audit.NewLog(dbh)
	svc := session.NewService(enrollments, exams, sessions, grading.NewDefaultGrader(), events)

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)
	checker := rbac.NewChecker(nil)

	sweeper := session.NewSweeper(svc, time.Duration(cfg.SweepIntervalSec)*time.Second)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	defer sweeper.Stop()

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
	r.Post("/candidates", api.RegisterCandidateHandler(enrollments))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("enrollment:create")).
			Post("/enrollments", api.SubmitEnrollmentHandler(enrollments, events))
		pr.With(rbac.Require("enrollment:transition")).
			Post("/enrollments/{enrollmentID}/transition", api.TransitionEnrollmentHandler(enrollments, events))
		pr.With(rbac.Require("enrollment:list")).
			Get("/enrollments", api.ListEnrollmentsHandler(enrollments))
		pr.With(rbac.RequireOwnerOr("enrollment:view", ownsEnrollment)).
			Get("/enrollments/{enrollmentID}", api.GetEnrollmentHandler(enrollments))

		pr.With(rbac.Require("document:upload")).
			Post("/enrollments/{enrollmentID}/documents", api.UploadDocumentHandler(enrollments, blobs))
		pr.With(rbac.RequireOwnerOr("document:validate", ownsEnrollment)).
			Get("/enrollments/{enrollmentID}/documents", api.ListDocumentsHandler(enrollments))
		pr.With(rbac.Require("document:validate")).
			Post("/documents/{documentID}/validation", api.ValidateDocumentHandler(enrollments, events))

		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.ScheduleExamHandler(exams))
		pr.With(rbac.Require("exam:reschedule")).
			Post("/exams/{examID}/reschedule", api.RescheduleExamHandler(exams))
		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(exams))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(exams))

		pr.With(rbac.Require("session:open")).
			Post("/sessions", api.OpenSessionHandler(svc))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{enrollmentID}/{examID}/answers", api.RecordAnswerHandler(svc))
		pr.With(rbac.Require("session:close")).
			Post("/sessions/{enrollmentID}/{examID}/close", api.CloseSessionHandler(svc))

		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{enrollmentID}/{examID}", api.GetResultHandler(sessions, exams, checker))
		pr.With(rbac.Require("result:view-all")).
			Get("/exams/{examID}/results", api.ListExamResultsHandler(sessions))
		pr.With(rbac.Require("grading:run")).
			Post("/exams/{examID}/grade-all", api.GradeAllHandler(svc))

		pr.With(rbac.Require("audit:view")).
			Get("/audit", api.AuditEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// ownsEnrollment treats the authenticated subject as owner when it
// matches the enrollment id in the path (the identity provider maps
// candidate/student credentials to their enrollment).
func ownsEnrollment(r *http.Request) bool {
	return rbac.SubjectFromContext(r.Context()) == chi.URLParam(r, "enrollmentID")
}
