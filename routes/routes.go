// Package routes is the single source of truth for Archon API paths.
// Both the provgate server and its clients build URLs from this table,
// preventing path drift between the two sides.
//
// Every builder is a pure function: same parameters, same path, no
// hidden state. The set of templates is fixed and enumerable via
// Templates, which the route-existence tests and the OpenAPI generator
// both consume.
package routes

import (
	"net/url"
	"strings"
)

// Route is one entry in the table: a path template with positional
// {param} placeholders.
type Route struct {
	template string
	params   int
}

// Path substitutes params into the template left to right and returns
// the final path. Parameters are path-escaped. Path is total: surplus
// parameters are ignored and missing ones leave their placeholder in
// place rather than panicking.
func (r Route) Path(params ...string) string {
	path := r.template
	for _, p := range params {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			break
		}
		path = path[:start] + url.PathEscape(p) + path[start+end+1:]
	}
	return path
}

// Template returns the raw path template.
func (r Route) Template() string { return r.template }

// Params returns how many path parameters the route takes.
func (r Route) Params() int { return r.params }

// all collects every route as it is declared, for Templates.
var all []Route

func route(template string) Route {
	r := Route{template: template, params: strings.Count(template, "{")}
	all = append(all, r)
	return r
}

// Providers groups the provider administration routes.
var Providers = struct {
	List                 Route
	Create               Route
	Detail               Route
	Update               Route
	Delete               Route
	GetActive            Route
	SetActive            Route
	AddCredential        Route
	ValidateCredential   Route
	RotateCredential     Route
	DeactivateCredential Route
	AddModel             Route
	ListModels           Route
	AllModels            Route
	HealthCheck          Route
	HealthHistory        Route
	Usage                Route
	UsageSummary         Route
}{
	List:                 route("/api/providers"),
	Create:               route("/api/providers"),
	Detail:               route("/api/providers/{provider_id}"),
	Update:               route("/api/providers/{provider_id}"),
	Delete:               route("/api/providers/{provider_id}"),
	GetActive:            route("/api/providers/active"),
	SetActive:            route("/api/providers/active"),
	AddCredential:        route("/api/providers/{provider_id}/credentials"),
	ValidateCredential:   route("/api/providers/{provider_id}/credentials/validate"),
	RotateCredential:     route("/api/providers/credentials/{credential_id}/rotate"),
	DeactivateCredential: route("/api/providers/credentials/{credential_id}"),
	AddModel:             route("/api/providers/{provider_id}/models"),
	ListModels:           route("/api/providers/{provider_id}/models"),
	AllModels:            route("/api/providers/models"),
	HealthCheck:          route("/api/providers/{provider_id}/health-check"),
	HealthHistory:        route("/api/providers/{provider_id}/health-history"),
	Usage:                route("/api/providers/{provider_id}/usage"),
	UsageSummary:         route("/api/providers/usage/summary"),
}

// Health groups the operational endpoints.
var Health = struct {
	Liveness Route
	Version  Route
	Metrics  Route
}{
	Liveness: route("/healthz"),
	Version:  route("/version"),
	Metrics:  route("/metrics"),
}

// Projects groups the project routes served elsewhere in the Archon
// backend. provgate clients build these paths but the provgate server
// does not serve them.
var Projects = struct {
	List       Route
	Detail     Route
	Tasks      Route
	TaskDetail Route
}{
	List:       route("/api/projects"),
	Detail:     route("/api/projects/{project_id}"),
	Tasks:      route("/api/projects/{project_id}/tasks"),
	TaskDetail: route("/api/tasks/{task_id}"),
}

// Templates returns every distinct path template in the table, in
// declaration order with duplicates removed.
func Templates() []string {
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, r := range all {
		if seen[r.template] {
			continue
		}
		seen[r.template] = true
		out = append(out, r.template)
	}
	return out
}
