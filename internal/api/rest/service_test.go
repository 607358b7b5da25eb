package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/skybi/kv-server/internal/api/schema"
	"github.com/skybi/kv-server/internal/config"
	"github.com/skybi/kv-server/internal/kv"
	"github.com/skybi/kv-server/internal/token"
	"github.com/skybi/kv-server/internal/token/storage/inmem"
	"github.com/skybi/kv-server/internal/token/usage"
)

type testService struct {
	service     *Service
	router      chi.Router
	adminSecret string
	readSecret  string
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	store, err := kv.NewStore(4, 0.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tokens, err := inmem.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tokens.CreateStatic(context.Background(), "admin-secret", token.AllCapabilities, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tokens.CreateStatic(context.Background(), "read-secret", token.EmptyCapabilities.With(token.CapabilityReadKeys), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service := &Service{
		Config: &config.Config{APIAllowedOrigin: "*"},
		Store:  store,
		Tokens: tokens,
		Usage:  usage.NewTracker(),
		writer: &schema.Writer{},
	}
	return &testService{
		service:     service,
		router:      service.buildRouter(),
		adminSecret: "admin-secret",
		readSecret:  "read-secret",
	}
}

func (ts *testService) request(method, target, secret, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	request := httptest.NewRequest(method, target, reader)
	if secret != "" {
		request.Header.Set("Authorization", "Bearer "+secret)
	}
	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, request)
	return recorder
}

func TestAuthentication(t *testing.T) {
	ts := newTestService(t)

	if recorder := ts.request(http.MethodGet, "/v1/stats", "", ""); recorder.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	if recorder := ts.request(http.MethodGet, "/v1/stats", "wrong-secret", ""); recorder.Code != http.StatusUnauthorized {
		t.Errorf("unknown token: expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	if recorder := ts.request(http.MethodGet, "/v1/stats", ts.readSecret, ""); recorder.Code != http.StatusOK {
		t.Errorf("valid token: expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestInsufficientCapabilities(t *testing.T) {
	ts := newTestService(t)

	recorder := ts.request(http.MethodPut, "/v1/keys/1", ts.readSecret, `{"value":"one"}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}

	var response schema.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode the error response: %v", err)
	}
	if len(response.Errors) != 1 || response.Errors[0].Type != "access.insufficientTokenCapabilities" {
		t.Errorf("unexpected error response: %+v", response)
	}
}

func TestKeyLifecycle(t *testing.T) {
	ts := newTestService(t)

	// Creating a new key responds with 201
	recorder := ts.request(http.MethodPut, "/v1/keys/1", ts.adminSecret, `{"value":"one"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	// Overwriting it responds with 200
	recorder = ts.request(http.MethodPut, "/v1/keys/1", ts.adminSecret, `{"value":"uno"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	// The stored value is readable
	recorder = ts.request(http.MethodGet, "/v1/keys/1", ts.readSecret, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var entry entryResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &entry); err != nil {
		t.Fatalf("could not decode the entry response: %v", err)
	}
	if entry.Key != 1 || entry.Value != "uno" {
		t.Errorf("expected entry (1, %q), got (%d, %q)", "uno", entry.Key, entry.Value)
	}

	// Deleting it returns the removed value
	recorder = ts.request(http.MethodDelete, "/v1/keys/1", ts.adminSecret, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &entry); err != nil {
		t.Fatalf("could not decode the entry response: %v", err)
	}
	if entry.Value != "uno" {
		t.Errorf("expected removed value %q, got %q", "uno", entry.Value)
	}

	// It is gone afterwards
	recorder = ts.request(http.MethodGet, "/v1/keys/1", ts.readSecret, "")
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestPutKeyValidation(t *testing.T) {
	ts := newTestService(t)

	// Non-numeric keys are rejected
	recorder := ts.request(http.MethodPut, "/v1/keys/abc", ts.adminSecret, `{"value":"x"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	// A missing value is rejected
	recorder = ts.request(http.MethodPut, "/v1/keys/1", ts.adminSecret, `{}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	// Invalid JSON is rejected
	recorder = ts.request(http.MethodPut, "/v1/keys/1", ts.adminSecret, `{`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetKeysPagination(t *testing.T) {
	ts := newTestService(t)
	for i := 0; i < 10; i++ {
		ts.request(http.MethodPut, fmt.Sprintf("/v1/keys/%d", i), ts.adminSecret, fmt.Sprintf(`{"value":"value%d"}`, i))
	}

	recorder := ts.request(http.MethodGet, "/v1/keys?offset=2&limit=3", ts.readSecret, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var response schema.PaginatedResponse[int64]
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode the paginated response: %v", err)
	}
	if response.Pagination.TotalCount != 10 {
		t.Errorf("expected total count 10, got %d", response.Pagination.TotalCount)
	}
	if response.Pagination.IncludedCount != 3 {
		t.Errorf("expected included count 3, got %d", response.Pagination.IncludedCount)
	}
	expected := []int64{2, 3, 4}
	for i, key := range expected {
		if response.Data[i] != key {
			t.Errorf("data[%d]: expected %d, got %d", i, key, response.Data[i])
		}
	}

	// An invalid limit is rejected
	recorder = ts.request(http.MethodGet, "/v1/keys?limit=0", ts.readSecret, "")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetStats(t *testing.T) {
	ts := newTestService(t)
	ts.request(http.MethodPut, "/v1/keys/1", ts.adminSecret, `{"value":"one"}`)
	ts.request(http.MethodPut, "/v1/keys/2", ts.adminSecret, `{"value":"two"}`)

	recorder := ts.request(http.MethodGet, "/v1/stats", ts.readSecret, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var stats kv.Stats
	if err := json.Unmarshal(recorder.Body.Bytes(), &stats); err != nil {
		t.Fatalf("could not decode the stats response: %v", err)
	}
	if stats.Size != 2 {
		t.Errorf("expected size 2, got %d", stats.Size)
	}
	if stats.Capacity != 4 {
		t.Errorf("expected capacity 4, got %d", stats.Capacity)
	}
}

func TestTokenLifecycle(t *testing.T) {
	ts := newTestService(t)

	// Tokens can only be managed with the manage capability
	recorder := ts.request(http.MethodPost, "/v1/tokens", ts.readSecret, `{"capabilities":1}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}

	// Create a new write-only token
	capabilities := uint(token.EmptyCapabilities.With(token.CapabilityWriteKeys))
	recorder = ts.request(http.MethodPost, "/v1/tokens", ts.adminSecret, fmt.Sprintf(`{"capabilities":%d}`, capabilities))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	var created createTokenResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("could not decode the token response: %v", err)
	}
	if created.Secret == "" {
		t.Fatal("expected a non-empty secret")
	}

	// The new token can write but not read
	if recorder := ts.request(http.MethodPut, "/v1/keys/1", created.Secret, `{"value":"one"}`); recorder.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, recorder.Code)
	}
	if recorder := ts.request(http.MethodGet, "/v1/keys/1", created.Secret, ""); recorder.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}

	// Its usage is reported
	recorder = ts.request(http.MethodGet, "/v1/tokens/"+created.Token.ID.String(), ts.adminSecret, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var fetched tokenResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("could not decode the token response: %v", err)
	}
	if fetched.RequestCount != 2 {
		t.Errorf("expected request count 2, got %d", fetched.RequestCount)
	}

	// Deleting the token revokes its access
	recorder = ts.request(http.MethodDelete, "/v1/tokens/"+created.Token.ID.String(), ts.adminSecret, "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if recorder := ts.request(http.MethodPut, "/v1/keys/2", created.Secret, `{"value":"two"}`); recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

func TestCreateTokenUnknownCapabilities(t *testing.T) {
	ts := newTestService(t)

	recorder := ts.request(http.MethodPost, "/v1/tokens", ts.adminSecret, `{"capabilities":1024}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response schema.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode the error response: %v", err)
	}
	if len(response.Errors) != 1 || response.Errors[0].Type != "token.unknownCapabilities" {
		t.Errorf("unexpected error response: %+v", response)
	}
}
