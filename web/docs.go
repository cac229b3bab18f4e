package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/archonlabs/provgate/routes"
)

// mountDocs serves the OpenAPI document and the Swagger UI. The
// document is generated from the route table, so it always matches
// what the router actually serves.
func (h *Handler) mountDocs(r chi.Router) {
	r.Get("/.well-known/openapi.json", h.OpenAPISpec)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/.well-known/openapi.json"),
	))
}

// OpenAPISpec returns a minimal OpenAPI 3 document enumerating every
// path in the route table.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paths := make(map[string]any)
	for _, template := range routes.Templates() {
		paths[template] = map[string]any{
			"parameters": templateParameters(template),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "ProvGate API",
			"version": h.version,
		},
		"paths": paths,
	})
}

// templateParameters extracts {name} placeholders as OpenAPI path
// parameters.
func templateParameters(template string) []map[string]any {
	params := []map[string]any{}
	for _, segment := range strings.Split(template, "/") {
		if len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}' {
			params = append(params, map[string]any{
				"name":     segment[1 : len(segment)-1],
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
	}
	return params
}
