package api

import (
	"errors"
	"net/http"

	"github.com/skybi/kv-server/internal/api/rest"
	"github.com/skybi/kv-server/internal/config"
	"github.com/skybi/kv-server/internal/kv"
	"github.com/skybi/kv-server/internal/token"
	"github.com/skybi/kv-server/internal/token/usage"
)

// Service represents the KV API service
type Service struct {
	Config *config.Config
	Store  *kv.Store
	Tokens token.Storage
	Usage  *usage.Tracker

	rest *rest.Service
}

// Startup starts up the KV API
func (service *Service) Startup(errs chan<- error) {
	restService := &rest.Service{
		Config: service.Config,
		Store:  service.Store,
		Tokens: service.Tokens,
		Usage:  service.Usage,
	}
	service.rest = restService
	go func() {
		if err := restService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown shuts down the KV API
func (service *Service) Shutdown() {
	if service.rest != nil {
		service.rest.Shutdown()
		service.rest = nil
	}
}
