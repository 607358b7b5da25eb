package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/skybi/kv-server/internal/api/schema"
	"github.com/skybi/kv-server/internal/config"
	"github.com/skybi/kv-server/internal/kv"
	"github.com/skybi/kv-server/internal/token"
	"github.com/skybi/kv-server/internal/token/usage"
)

// Service represents the KV API service
type Service struct {
	server *http.Server

	Config *config.Config
	Store  *kv.Store
	Tokens token.Storage
	Usage  *usage.Tracker

	writer *schema.Writer
}

// Startup starts up the KV API
func (service *Service) Startup() error {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the KV API experienced an unexpected error")
		},
	}

	// Start up the server
	server := &http.Server{
		Addr:    service.Config.APIListenAddress,
		Handler: service.buildRouter(),
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the KV API
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
}

// buildRouter assembles the HTTP router including all middlewares and endpoint handlers
func (service *Service) buildRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.Config.APIAllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPut,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the key-value controller endpoints
	router.Get("/v1/keys", withMiddlewares(service.EndpointGetKeys,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityReadKeys)))
	router.Get("/v1/keys/{key}", withMiddlewares(service.EndpointGetKey,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityReadKeys)))
	router.Put("/v1/keys/{key}", withMiddlewares(service.EndpointPutKey,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityWriteKeys)))
	router.Delete("/v1/keys/{key}", withMiddlewares(service.EndpointDeleteKey,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityWriteKeys)))
	router.Get("/v1/values", withMiddlewares(service.EndpointGetValues,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityReadKeys)))
	router.Get("/v1/stats", withMiddlewares(service.EndpointGetStats,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityReadKeys)))

	// Register the token controller endpoints
	router.Post("/v1/tokens", withMiddlewares(service.EndpointCreateToken,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityManageTokens)))
	router.Get("/v1/tokens/{id}", withMiddlewares(service.EndpointGetToken,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityManageTokens)))
	router.Delete("/v1/tokens/{id}", withMiddlewares(service.EndpointDeleteToken,
		service.MiddlewareVerifyToken, service.MiddlewareVerifyCapabilities(token.CapabilityManageTokens)))

	return router
}

func withMiddlewares(end http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	final := end
	for i := len(middlewares); i > 0; i-- {
		final = middlewares[i-1](final)
	}
	return final
}
