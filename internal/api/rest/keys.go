package rest

import (
	"fmt"
	"math"
	"net/http"

	"github.com/skybi/kv-server/internal/api/schema"
	"github.com/skybi/kv-server/internal/api/validation"
)

var errKeyNotFound = func(key int64) *schema.Error {
	return &schema.Error{
		Type:    "kv.keyNotFound",
		Message: fmt.Sprintf("No value is stored for key '%d'.", key),
		Details: map[string]any{
			"key": key,
		},
	}
}

// entryResponse represents a single key-value pair in API responses
type entryResponse struct {
	Key   int64  `json:"key"`
	Value string `json:"value"`
}

// EndpointGetKeys handles the 'GET /v1/keys?offset={number?:0}&limit={number?:100}' endpoint
func (service *Service) EndpointGetKeys(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	offset, validationErr := validation.QueryNumber(request, "offset", false, 0, 0, math.MaxInt64)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	limit, validationErr := validation.QueryNumber(request, "limit", false, 100, 1, 1000)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	keys := service.Store.Keys()
	page := paginate(keys, offset, limit)
	service.writer.WriteJSON(writer, schema.BuildPaginatedResponse(uint64(offset), uint64(limit), uint64(len(keys)), page))
}

// EndpointGetKey handles the 'GET /v1/keys/{key}' endpoint
func (service *Service) EndpointGetKey(writer http.ResponseWriter, request *http.Request) {
	key, validationErr := validation.PathNumber(request, "key")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	value, ok := service.Store.Get(key)
	if !ok {
		service.writer.WriteErrors(writer, http.StatusNotFound, errKeyNotFound(key))
		return
	}
	service.writer.WriteJSON(writer, &entryResponse{Key: key, Value: value})
}

type putKeyRequest struct {
	Value *string `json:"value" required:"true"`
}

// EndpointPutKey handles the 'PUT /v1/keys/{key}' endpoint.
// It creates or overwrites the value of the given key and responds with 201 if the key was
// newly created and 200 if an existing value was overwritten.
func (service *Service) EndpointPutKey(writer http.ResponseWriter, request *http.Request) {
	key, validationErr := validation.PathNumber(request, "key")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	body, validationErrs, err := schema.UnmarshalBody[putKeyRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	created := service.Store.Set(key, *body.Value)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	service.writer.WriteJSONCode(writer, status, &entryResponse{Key: key, Value: *body.Value})
}

// EndpointDeleteKey handles the 'DELETE /v1/keys/{key}' endpoint
func (service *Service) EndpointDeleteKey(writer http.ResponseWriter, request *http.Request) {
	key, validationErr := validation.PathNumber(request, "key")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	value, ok := service.Store.Delete(key)
	if !ok {
		service.writer.WriteErrors(writer, http.StatusNotFound, errKeyNotFound(key))
		return
	}
	service.writer.WriteJSON(writer, &entryResponse{Key: key, Value: value})
}

// EndpointGetValues handles the 'GET /v1/values?offset={number?:0}&limit={number?:100}' endpoint.
// Values are returned in the store's bucket order.
func (service *Service) EndpointGetValues(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	offset, validationErr := validation.QueryNumber(request, "offset", false, 0, 0, math.MaxInt64)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	limit, validationErr := validation.QueryNumber(request, "limit", false, 100, 1, 1000)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	values := service.Store.Values()
	page := paginate(values, offset, limit)
	service.writer.WriteJSON(writer, schema.BuildPaginatedResponse(uint64(offset), uint64(limit), uint64(len(values)), page))
}

// paginate cuts the window [offset, offset+limit) out of a slice
func paginate[T any](all []T, offset, limit int64) []T {
	if offset >= int64(len(all)) {
		return []T{}
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end]
}
