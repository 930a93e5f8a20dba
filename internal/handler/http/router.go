package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/salarysys/payroll-backend-go/internal/handler/http/middleware"
	"github.com/salarysys/payroll-backend-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	periodHandler *PeriodHandler,
	assignmentHandler *AssignmentHandler,
	insuranceHandler *InsuranceHandler,
	payrollHandler *PayrollHandler,
	workflowHandler *WorkflowHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", "development"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/periods", func(r chi.Router) {
				r.Post("/", periodHandler.Create)
				r.Get("/", periodHandler.List)

				r.Route("/{periodID}", func(r chi.Router) {
					r.Get("/", periodHandler.GetByID)
					r.Patch("/status", periodHandler.UpdateStatus)

					r.Route("/assignments", func(r chi.Router) {
						r.Post("/categories", assignmentHandler.AssignCategory)
						r.Get("/categories", assignmentHandler.ListCategories)
						r.Post("/positions", assignmentHandler.AssignPosition)
						r.Get("/positions", assignmentHandler.ListPositions)
						r.Get("/progress", assignmentHandler.GetProgress)
					})

					r.Route("/insurance", func(r chi.Router) {
						r.Post("/resolve", insuranceHandler.Resolve)
						r.Post("/batch-resolve", insuranceHandler.BatchResolve)
						r.Post("/validate", insuranceHandler.Validate)
						r.Post("/bases", insuranceHandler.UpsertBase)
						r.Get("/bases", insuranceHandler.ListBases)
						r.Get("/rules", insuranceHandler.ListRules)
						r.Get("/contributions", insuranceHandler.Contributions)
					})

					r.Get("/payrolls", payrollHandler.ListByPeriod)
					r.Get("/summary", payrollHandler.GetPeriodSummary)
				})
			})

			r.Route("/payrolls", func(r chi.Router) {
				r.Post("/", payrollHandler.Create)

				r.Route("/{payrollID}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetByID)
					r.Post("/items", payrollHandler.AddItem)
					r.Patch("/status", payrollHandler.UpdateStatus)
				})
			})

			r.Get("/insurance-types", insuranceHandler.ListTypes)
			r.Get("/components", payrollHandler.ListComponents)

			r.Route("/workflow", func(r chi.Router) {
				r.Get("/", workflowHandler.GetState)
				r.Post("/select", workflowHandler.Select)
				r.Post("/advance", workflowHandler.Advance)
				r.Post("/retreat", workflowHandler.Retreat)
				r.Post("/jump", workflowHandler.JumpTo)
				r.Post("/reset", workflowHandler.Reset)
				r.Post("/run", workflowHandler.RunFull)
			})
		})
	})
	return r
}
