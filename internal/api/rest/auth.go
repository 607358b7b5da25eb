package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/skybi/kv-server/internal/api/schema"
	"github.com/skybi/kv-server/internal/token"
)

var contextValueToken = "token"

var errAuthInsufficientCapabilities = func(provided, required token.Capabilities) *schema.Error {
	return &schema.Error{
		Type:    "access.insufficientTokenCapabilities",
		Message: "The specified access token lacks at least one capability required for this action.",
		Details: map[string]any{
			"provided": provided,
			"required": required,
			"missing":  required & ^provided,
		},
	}
}

// MiddlewareVerifyToken makes sure that the requesting client has provided a valid access token.
// Additionally, it injects the token object itself into the request context and counts the
// request towards the token's usage.
func (service *Service) MiddlewareVerifyToken(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		// Try to read the 'Authorization' header and verify it is of type 'Bearer'
		header := request.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer") {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		// Try to retrieve the token out of the storage
		rawToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		tkn, err := service.Tokens.GetByRawToken(request.Context(), rawToken)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if tkn == nil {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		// Reject tokens that are expired but not yet cleaned up
		if tkn.Expiring() && tkn.Expires <= time.Now().Unix() {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		service.Usage.Accumulate(tkn)

		// Delegate to the next handler
		request = request.WithContext(context.WithValue(request.Context(), contextValueToken, tkn))
		next(writer, request)
	}
}

// MiddlewareVerifyCapabilities makes sure that the provided access token has a set of required capabilities
func (service *Service) MiddlewareVerifyCapabilities(caps ...token.Capability) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) {
			// Extract the token object
			tkn, ok := request.Context().Value(contextValueToken).(*token.Token)
			if !ok {
				service.writer.WriteInternalError(writer, errors.New("token capability check without token verification"))
				return
			}

			// Verify the token's capabilities
			if !tkn.Capabilities.Has(caps...) {
				err := errAuthInsufficientCapabilities(tkn.Capabilities, token.EmptyCapabilities.With(caps...))
				service.writer.WriteErrors(writer, http.StatusForbidden, err)
				return
			}

			// Delegate to the next handler
			next(writer, request)
		}
	}
}
