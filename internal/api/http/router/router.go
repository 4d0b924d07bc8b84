// Package router wires the REST surface onto a chi router.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/piggyvault/internal/api/http/handler"
	httpMiddleware "github.com/dtroode/piggyvault/internal/api/http/middleware"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
)

// Router holds the services behind the REST surface.
type Router struct {
	authService    handler.AuthService
	filesService   handler.FilesService
	tokenService   httpMiddleware.TokenService
	healthChecker  handler.HealthChecker
	contextManager model.ContextManager
	responder      *handler.Responder
	requestTimeout time.Duration
	logger         *logger.Logger
}

func New(
	authService handler.AuthService,
	filesService handler.FilesService,
	tokenService httpMiddleware.TokenService,
	healthChecker handler.HealthChecker,
	contextManager model.ContextManager,
	responder *handler.Responder,
	requestTimeout time.Duration,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		filesService:   filesService,
		tokenService:   tokenService,
		healthChecker:  healthChecker,
		contextManager: contextManager,
		responder:      responder,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Register builds the HTTP handler with all routes and middleware.
func (rt *Router) Register() http.Handler {
	logging := httpMiddleware.NewLogging(rt.logger)
	authenticate := httpMiddleware.NewAuthenticate(rt.tokenService, rt.contextManager, rt.responder, rt.logger)

	authHandler := handler.NewAuth(rt.authService, rt.contextManager, rt.responder, rt.logger)
	filesHandler := handler.NewFiles(rt.filesService, rt.contextManager, rt.responder, rt.logger)
	healthHandler := handler.NewHealth(rt.healthChecker, rt.responder)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Handle)
	r.Use(middleware.Recoverer)
	r.Use(httpMiddleware.CORS)
	if rt.requestTimeout > 0 {
		r.Use(middleware.Timeout(rt.requestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		rt.responder.Status(w, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		rt.responder.Status(w, http.StatusMethodNotAllowed)
	})

	r.Get(handler.PathRoot, authHandler.Root)
	r.Get(handler.PathHealth, healthHandler.Check)
	r.Handle(handler.PathMetrics, promhttp.Handler())

	r.Post(handler.PathUser, authHandler.Register)
	r.Get(handler.PathRequestChallenge, authHandler.RequestChallenge)
	r.Post(handler.PathAnswerChallenge, authHandler.AnswerChallenge)

	r.Group(func(r chi.Router) {
		r.Use(authenticate.Handle)

		r.Delete(handler.PathUser, authHandler.DeleteUser)
		r.Post(handler.PathLogout, authHandler.Logout)

		r.Get(handler.PathFiles, filesHandler.List)
		r.Post(handler.PathRequestUploadURL, filesHandler.RequestUploadURL)
		r.Delete(handler.PathDeleteFile, filesHandler.Delete)
	})

	return r
}
