package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/archonlabs/provgate/routes"
)

func TestRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/api/providers" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Custom") != "custom-value" {
			t.Errorf("X-Custom = %q", r.Header.Get("X-Custom"))
		}

		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if in["name"] != "OpenAI" {
			t.Errorf("body name = %q", in["name"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "p1"})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Headers: map[string]string{"X-Custom": "custom-value"},
	})

	var out map[string]string
	err := c.Post(context.Background(), routes.Providers.Create.Path(), map[string]string{"name": "OpenAI"}, &out)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if out["id"] != "p1" {
		t.Errorf("out id = %q, want p1", out["id"])
	}
}

func TestRequestWithHeaders_PerCallOverridesClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Trace") != "per-call" {
			t.Errorf("X-Trace = %q, want per-call to win", r.Header.Get("X-Trace"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Headers: map[string]string{"X-Trace": "client"}})
	err := c.RequestWithHeaders(context.Background(), http.MethodGet, "/x", nil, nil,
		map[string]string{"X-Trace": "per-call"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRequest_404WithDetailString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not found"})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Get(context.Background(), routes.Providers.Detail.Path("missing"), &struct{}{})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.Status != 404 {
		t.Errorf("Status = %d, want 404", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "not found") {
		t.Errorf("Message = %q, want it to include %q", apiErr.Message, "not found")
	}
	if apiErr.Kind != KindTransport {
		t.Errorf("Kind = %q, want transport", apiErr.Kind)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound = false")
	}
}

func TestRequest_DetailObjectFlattened(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{
				"message": "insert failed",
				"details": "duplicate key value",
				"hint":    "use PUT to update",
				"code":    "23505",
			},
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Post(context.Background(), "/api/providers", map[string]string{}, nil)

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	for _, want := range []string{"insert failed", "details: duplicate key value", "hint: use PUT to update", "code: 23505"} {
		if !strings.Contains(apiErr.Message, want) {
			t.Errorf("Message = %q, missing %q", apiErr.Message, want)
		}
	}
	if !strings.Contains(apiErr.Message, "\n") {
		t.Errorf("Message = %q, want multi-line", apiErr.Message)
	}
}

func TestRequest_MessageFieldFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad things"})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Get(context.Background(), "/x", nil)
	apiErr, _ := AsAPIError(err)
	if apiErr == nil || apiErr.Message != "bad things" {
		t.Errorf("err = %v, want message 'bad things'", err)
	}
}

func TestRequest_NonJSONBodyFallsBackToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Get(context.Background(), "/x", nil)
	apiErr, _ := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Message != "upstream exploded" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.StatusText != "Bad Gateway" {
		t.Errorf("StatusText = %q", apiErr.StatusText)
	}
}

func TestRequest_EmptyErrorBodyUsesStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Get(context.Background(), "/x", nil)
	apiErr, _ := AsAPIError(err)
	if apiErr == nil || apiErr.Message != "Forbidden" {
		t.Errorf("err = %v, want Forbidden", err)
	}
}

func TestRequest_204ResolvesClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})

	var out map[string]string
	if err := c.Request(context.Background(), http.MethodDelete, "/x", nil, &out); err != nil {
		t.Fatalf("204 should not error: %v", err)
	}
	if out != nil {
		t.Errorf("out = %v, want untouched", out)
	}

	if err := c.Delete(context.Background(), "/x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRequest_422IsValidationKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "field missing"})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.Post(context.Background(), "/x", map[string]string{}, nil)
	apiErr, _ := AsAPIError(err)
	if apiErr == nil || apiErr.Kind != KindValidation {
		t.Errorf("err = %v, want validation kind", err)
	}
}

func TestRequest_NetworkFailureWrapped(t *testing.T) {
	// Point at a closed server so the dial fails.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: time.Second})
	err := c.Get(context.Background(), "/x", nil)

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("network failure surfaced as %T, want *APIError", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("Status = %d, want 0 for network failure", apiErr.Status)
	}
	if apiErr.Kind != KindTransport {
		t.Errorf("Kind = %q", apiErr.Kind)
	}
	if !strings.Contains(apiErr.Message, "network error") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

// The client enforces no ordering across independent requests: when two
// saves race, whichever response resolves last determines the final
// observed state, regardless of which was issued first.
func TestRequest_NoCrossRequestOrdering(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("req") == "first" {
			time.Sleep(150 * time.Millisecond) // first request resolves last
		}
		json.NewEncoder(w).Encode(map[string]string{"value": r.URL.Query().Get("req")})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})

	var (
		mu        sync.Mutex
		displayed string
		wg        sync.WaitGroup
	)
	send := func(name string) {
		defer wg.Done()
		var out map[string]string
		if err := c.Get(context.Background(), "/state?req="+name, &out); err != nil {
			t.Errorf("request %s: %v", name, err)
			return
		}
		mu.Lock()
		displayed = out["value"]
		mu.Unlock()
	}

	wg.Add(2)
	go send("first")
	time.Sleep(20 * time.Millisecond)
	go send("second")
	wg.Wait()

	if displayed != "first" {
		t.Errorf("displayed = %q; the later-resolving response should win", displayed)
	}
}
