package web_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/clock"
	"github.com/archonlabs/provgate/adapters/crypto"
	"github.com/archonlabs/provgate/adapters/idgen"
	"github.com/archonlabs/provgate/adapters/memory"
	"github.com/archonlabs/provgate/app"
	"github.com/archonlabs/provgate/routes"
	"github.com/archonlabs/provgate/web"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cipher, err := crypto.NewSecretBox(key)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	providerStore := memory.NewProviderStore()
	credentialStore := memory.NewCredentialStore()
	modelStore := memory.NewModelStore()
	fake := clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	ids := idgen.NewSequential("id")
	logger := zerolog.Nop()

	providers := app.NewProviderService(providerStore, credentialStore, modelStore, cipher, fake, ids, logger)
	usage := app.NewUsageService(memory.NewUsageStore(), modelStore, fake, ids, nil, logger)
	health := app.NewHealthService(providerStore, memory.NewHealthStore(), nil, fake, ids, nil, logger)

	h := web.NewHandler(web.Deps{
		Providers: providers,
		Usage:     usage,
		Health:    health,
		Logger:    logger,
		Version:   "test",
	})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func createTestProvider(t *testing.T, srv *httptest.Server, name, typ string) string {
	t.Helper()
	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.Create.Path(), map[string]any{
		"name": name,
		"type": typ,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create provider: status %d, body %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}

func validOpenAIKey() string {
	return "sk-" + strings.Repeat("a", 45)
}

func TestProviderCRUD(t *testing.T) {
	srv := newTestServer(t)

	id := createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodGet, routes.Providers.Detail.Path(id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	if body["name"] != "openai" {
		t.Errorf("name = %v, want openai", body["name"])
	}
	if body["api_key_env_var"] != "OPENAI_API_KEY" {
		t.Errorf("api_key_env_var = %v, want OPENAI_API_KEY", body["api_key_env_var"])
	}

	resp, body = doJSON(t, srv, http.MethodPut, routes.Providers.Update.Path(id), map[string]any{
		"display_name": "OpenAI Production",
		"base_url":     "https://api.openai.com/v1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d, body %v", resp.StatusCode, body)
	}
	if body["display_name"] != "OpenAI Production" {
		t.Errorf("display_name = %v", body["display_name"])
	}

	resp, _ = doJSON(t, srv, http.MethodGet, routes.Providers.List.Path(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, routes.Providers.Delete.Path(id), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.Detail.Path(id), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", resp.StatusCode)
	}
	// Error body carries the detail shape clients flatten.
	if body["detail"] != "provider not found" {
		t.Errorf("detail = %v, want 'provider not found'", body["detail"])
	}
}

func TestCreateProviderDuplicateName(t *testing.T) {
	srv := newTestServer(t)

	createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.Create.Path(), map[string]any{
		"name": "openai",
		"type": "openai",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if body["detail"] != "provider name already in use" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestActiveProvider(t *testing.T) {
	srv := newTestServer(t)

	createTestProvider(t, srv, "openai", "openai")
	groqID := createTestProvider(t, srv, "groq", "groq")

	resp, body := doJSON(t, srv, http.MethodGet, routes.Providers.GetActive.Path(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get active before set: status %d, body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, routes.Providers.SetActive.Path(), map[string]any{
		"provider_id": groqID,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set active: status %d", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.GetActive.Path(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get active: status %d", resp.StatusCode)
	}
	if body["id"] != groqID {
		t.Errorf("active id = %v, want %v", body["id"], groqID)
	}
}

func TestAddCredential(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.AddCredential.Path(id), map[string]any{
		"api_key": validOpenAIKey(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add credential: status %d, body %v", resp.StatusCode, body)
	}
	if body["active"] != true {
		t.Error("credential should be active")
	}
	if _, leaked := body["api_key"]; leaked {
		t.Error("response must not echo the secret")
	}
	if _, leaked := body["ciphertext"]; leaked {
		t.Error("response must not expose the ciphertext")
	}
}

func TestAddCredentialRejectsMalformedKey(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.AddCredential.Path(id), map[string]any{
		"api_key": "pk-not-an-openai-key-aaaaaaaaaaaaaaaaaaaaaa",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	detail, ok := body["detail"].(map[string]any)
	if !ok {
		t.Fatalf("detail should be an object, got %T", body["detail"])
	}
	if detail["code"] != "INVALID_PREFIX" {
		t.Errorf("code = %v, want INVALID_PREFIX", detail["code"])
	}
	if detail["message"] == "" {
		t.Error("message should not be empty")
	}
}

func TestValidateCredentialEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	// A malformed key is still a 200: validation outcomes are data.
	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.ValidateCredential.Path(id), map[string]any{
		"api_key": "short",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["is_valid"] != false {
		t.Errorf("is_valid = %v, want false", body["is_valid"])
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) == 0 {
		t.Fatalf("errors = %v, want non-empty list", body["errors"])
	}

	resp, body = doJSON(t, srv, http.MethodPost, routes.Providers.ValidateCredential.Path(id), map[string]any{
		"api_key": validOpenAIKey(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["is_valid"] != true {
		t.Errorf("is_valid = %v, want true", body["is_valid"])
	}
}

func TestRotateAndDeactivateCredential(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	_, created := doJSON(t, srv, http.MethodPost, routes.Providers.AddCredential.Path(id), map[string]any{
		"api_key": validOpenAIKey(),
	})
	credID := created["id"].(string)

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.RotateCredential.Path(credID), map[string]any{
		"api_key": "sk-" + strings.Repeat("b", 45),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rotate: status %d, body %v", resp.StatusCode, body)
	}
	if body["rotated_at"] == nil {
		t.Error("rotated_at should be set")
	}
	if body["id"] != credID {
		t.Errorf("rotation changed identity: %v", body["id"])
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, routes.Providers.DeactivateCredential.Path(credID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate: status %d", resp.StatusCode)
	}
}

func TestModels(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.AddModel.Path(id), map[string]any{
		"model_id":       "gpt-4o-mini",
		"context_window": 128000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add model: status %d, body %v", resp.StatusCode, body)
	}
	if body["type"] != "llm" {
		t.Errorf("type = %v, want llm default", body["type"])
	}
	if body["name"] != "gpt-4o-mini" {
		t.Errorf("name = %v, want model_id fallback", body["name"])
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.ListModels.Path(id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list models: status %d", resp.StatusCode)
	}
	if body["total"] != float64(1) {
		t.Errorf("total = %v, want 1", body["total"])
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.AllModels.Path(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("all models: status %d", resp.StatusCode)
	}
	if body["total"] != float64(1) {
		t.Errorf("all models total = %v, want 1", body["total"])
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")
	doJSON(t, srv, http.MethodPut, routes.Providers.Update.Path(id), map[string]any{
		"base_url": upstream.URL,
	})

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.HealthCheck.Path(id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health check: status %d, body %v", resp.StatusCode, body)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.HealthHistory.Path(id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health history: status %d", resp.StatusCode)
	}
	if body["total"] != float64(1) {
		t.Errorf("history total = %v, want 1", body["total"])
	}
}

func TestUsageEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProvider(t, srv, "openai", "openai")

	resp, body := doJSON(t, srv, http.MethodPost, routes.Providers.Usage.Path(id), map[string]any{
		"input_tokens":  100,
		"output_tokens": 40,
		"latency_ms":    250,
		"status_code":   200,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record usage: status %d, body %v", resp.StatusCode, body)
	}

	// Fake clock pins events at a known instant; query around it.
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	to := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	window := fmt.Sprintf("?from=%s&to=%s", from, to)

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.Usage.Path(id)+window, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("provider usage: status %d", resp.StatusCode)
	}
	if body["request_count"] != float64(1) {
		t.Errorf("request_count = %v, want 1", body["request_count"])
	}
	if body["input_tokens"] != float64(100) {
		t.Errorf("input_tokens = %v, want 100", body["input_tokens"])
	}

	// Raw events attach on request.
	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.Usage.Path(id)+window+"&include=events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("provider usage with events: status %d", resp.StatusCode)
	}
	events, ok := body["events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("events = %v, want one entry", body["events"])
	}
	event := events[0].(map[string]any)
	if event["input_tokens"] != float64(100) {
		t.Errorf("event input_tokens = %v, want 100", event["input_tokens"])
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Providers.UsageSummary.Path()+window, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("usage summary: status %d", resp.StatusCode)
	}
	providers, ok := body["providers"].(map[string]any)
	if !ok || len(providers) != 1 {
		t.Errorf("providers = %v, want one entry", body["providers"])
	}
	total, ok := body["total"].(map[string]any)
	if !ok {
		t.Fatalf("total missing: %v", body)
	}
	if total["request_count"] != float64(1) {
		t.Errorf("total request_count = %v, want 1", total["request_count"])
	}
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, routes.Health.Liveness.Path(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}

	resp, body = doJSON(t, srv, http.MethodGet, routes.Health.Version.Path(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("version: status %d", resp.StatusCode)
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestOpenAPISpecListsRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/.well-known/openapi.json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("openapi: status %d", resp.StatusCode)
	}

	paths, ok := body["paths"].(map[string]any)
	if !ok {
		t.Fatalf("paths missing: %v", body)
	}
	for _, template := range routes.Templates() {
		if _, ok := paths[template]; !ok {
			t.Errorf("openapi document missing %s", template)
		}
	}
}
