// Package rest wires the HTTP API: routing, middleware, and handlers.
package rest

import (
	"net/http"

	"algoitny-backend/application/commands/bus"
	querybus "algoitny-backend/application/queries/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/interfaces/http/rest/handlers"
	"algoitny-backend/interfaces/http/rest/middleware"
	"algoitny-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router.
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	users      ports.UserRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewRouter creates a Router.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	users ports.UserRepository,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		users:      users,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.testcase.run"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	authHandler := handlers.NewAuthHandler(rt.users, rt.jwtManager, rt.logger)
	problemHandler := handlers.NewProblemHandler(rt.commandBus, rt.queryBus, rt.logger)
	jobHandler := handlers.NewJobHandler(rt.commandBus, rt.queryBus, rt.logger)
	accountHandler := handlers.NewAccountHandler(rt.queryBus, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Token endpoints are the only unauthenticated API surface.
		r.Post("/auth/token", authHandler.IssueToken)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.jwtManager, rt.logger))

			r.Route("/problems", func(r chi.Router) {
				r.Get("/", problemHandler.Search)
				r.Post("/", problemHandler.Register)
				r.Get("/{platform}/{problemID}", problemHandler.Get)
				r.Put("/{platform}/{problemID}/testcases", problemHandler.SaveTestCases)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin())
					r.Delete("/{platform}/{problemID}", problemHandler.Delete)
				})
			})

			r.Post("/execute", jobHandler.Execute)
			r.Post("/extract", jobHandler.Extract)

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", jobHandler.List)
				r.Get("/{kind}/{jobID}", jobHandler.Get)
				r.Get("/{kind}/{jobID}/progress", jobHandler.Progress)
				r.Post("/{kind}/{jobID}/cancel", jobHandler.Cancel)
				r.Post("/{kind}/{jobID}/retry", jobHandler.Retry)
			})

			r.Route("/account", func(r chi.Router) {
				r.Get("/history", accountHandler.History)
				r.Get("/usage", accountHandler.Usage)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
