package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skybi/kv-server/internal/api/schema"
	"github.com/skybi/kv-server/internal/token"
)

var (
	errTokenNotFound = func(id string) *schema.Error {
		return &schema.Error{
			Type:    "token.notFound",
			Message: "No access token with the given ID exists.",
			Details: map[string]any{
				"id": id,
			},
		}
	}
	errTokenUnknownCapabilities = func(provided uint) *schema.Error {
		return &schema.Error{
			Type:    "token.unknownCapabilities",
			Message: "The given capability set contains at least one unknown capability.",
			Details: map[string]any{
				"provided": provided,
				"known":    uint(token.AllCapabilities),
			},
		}
	}
)

type createTokenRequest struct {
	Capabilities *uint  `json:"capabilities" required:"true"`
	Lifetime     *int64 `json:"lifetime"`
}

// createTokenResponse contains the created token together with its raw secret.
// This is the only place the secret ever leaves the service.
type createTokenResponse struct {
	Token  *token.Token `json:"token"`
	Secret string       `json:"secret"`
}

type tokenResponse struct {
	Token        *token.Token `json:"token"`
	RequestCount uint64       `json:"request_count"`
}

// EndpointCreateToken handles the 'POST /v1/tokens' endpoint.
// The optional lifetime is given in seconds; a missing or zero lifetime creates a token that
// never expires.
func (service *Service) EndpointCreateToken(writer http.ResponseWriter, request *http.Request) {
	body, validationErrs, err := schema.UnmarshalBody[createTokenRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	capabilities := token.Capabilities(*body.Capabilities)
	if capabilities&^token.AllCapabilities != 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errTokenUnknownCapabilities(*body.Capabilities))
		return
	}

	expires := int64(0)
	if body.Lifetime != nil && *body.Lifetime > 0 {
		expires = time.Now().Add(time.Duration(*body.Lifetime) * time.Second).Unix()
	}

	created, rawToken, err := service.Tokens.Create(request.Context(), capabilities, expires)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSONCode(writer, http.StatusCreated, &createTokenResponse{
		Token:  created,
		Secret: rawToken,
	})
}

// EndpointGetToken handles the 'GET /v1/tokens/{id}' endpoint
func (service *Service) EndpointGetToken(writer http.ResponseWriter, request *http.Request) {
	id, err := uuid.Parse(chi.URLParam(request, "id"))
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, errTokenNotFound(chi.URLParam(request, "id")))
		return
	}

	tkn, err := service.Tokens.GetByID(request.Context(), id)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if tkn == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, errTokenNotFound(id.String()))
		return
	}
	service.writer.WriteJSON(writer, &tokenResponse{
		Token:        tkn,
		RequestCount: service.Usage.Get(tkn),
	})
}

// EndpointDeleteToken handles the 'DELETE /v1/tokens/{id}' endpoint
func (service *Service) EndpointDeleteToken(writer http.ResponseWriter, request *http.Request) {
	id, err := uuid.Parse(chi.URLParam(request, "id"))
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, errTokenNotFound(chi.URLParam(request, "id")))
		return
	}

	tkn, err := service.Tokens.GetByID(request.Context(), id)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if tkn == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, errTokenNotFound(id.String()))
		return
	}

	if err := service.Tokens.DeleteByID(request.Context(), id); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
