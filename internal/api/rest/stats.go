package rest

import (
	"net/http"
)

// EndpointGetStats handles the 'GET /v1/stats' endpoint.
// It responds with a consistent snapshot of the store's table metrics.
func (service *Service) EndpointGetStats(writer http.ResponseWriter, request *http.Request) {
	service.writer.WriteJSON(writer, service.Store.Stats())
}
