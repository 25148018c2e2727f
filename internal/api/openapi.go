package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/verte-zerg/spirestats/internal/model"
)

// OpenAPIPath serves the generated API description.
const OpenAPIPath = "/api-docs/openapi.json"

type openAPIDoc struct {
	OpenAPI    string                          `json:"openapi"`
	Info       openAPIInfo                     `json:"info"`
	Tags       []openAPITag                    `json:"tags"`
	Paths      map[string]map[string]operation `json:"paths"`
	Components components                      `json:"components"`
}

type openAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type openAPITag struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type components struct {
	Schemas map[string]*schema `json:"schemas"`
}

type operation struct {
	Tags        []string            `json:"tags"`
	Summary     string              `json:"summary"`
	OperationID string              `json:"operationId"`
	Parameters  []parameter         `json:"parameters,omitempty"`
	RequestBody *requestBody        `json:"requestBody,omitempty"`
	Responses   map[string]response `json:"responses"`
}

type parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Required    bool    `json:"required"`
	Description string  `json:"description"`
	Schema      *schema `json:"schema"`
}

type requestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]mediaType `json:"content"`
}

type response struct {
	Description string               `json:"description"`
	Content     map[string]mediaType `json:"content,omitempty"`
}

type mediaType struct {
	Schema *schema `json:"schema"`
}

type schema struct {
	Ref        string             `json:"$ref,omitempty"`
	Type       string             `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Nullable   bool               `json:"nullable,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// schemaTypes are published under components and referenced by name.
var schemaTypes = map[reflect.Type]string{
	reflect.TypeOf(model.RunMetrics{}):     "RunMetrics",
	reflect.TypeOf(model.CharacterStats{}): "CharacterStats",
	reflect.TypeOf(model.ExportData{}):     "ExportData",
	reflect.TypeOf(model.CharacterInfo{}):  "CharacterInfo",
	reflect.TypeOf(model.PathInfo{}):       "PathInfo",
	reflect.TypeOf(apiError{}):             "ApiError",
	reflect.TypeOf(healthResponse{}):       "HealthResponse",
	reflect.TypeOf(setPathRequest{}):       "SetPathRequest",
}

// OpenAPIDocument describes every API route as an OpenAPI 3 document.
func OpenAPIDocument(version string) ([]byte, error) {
	return json.MarshalIndent(buildOpenAPI(version), "", "  ")
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildOpenAPI(s.version))
}

func buildOpenAPI(version string) openAPIDoc {
	schemas := make(map[string]*schema, len(schemaTypes))
	for t, name := range schemaTypes {
		schemas[name] = structSchema(t)
	}

	character := parameter{
		Name: "character", In: "path", Required: true,
		Description: "Character identifier (" + strings.Join(model.CharacterIDs(), ", ") + "), case-insensitive",
		Schema:      &schema{Type: "string"},
	}
	runFilters := []parameter{
		{Name: "character", In: "query", Description: "Filter by character, case-insensitive", Schema: &schema{Type: "string"}},
		{Name: "victories_only", In: "query", Description: "Only return victories", Schema: &schema{Type: "boolean"}},
		{Name: "min_ascension", In: "query", Description: "Minimum ascension level", Schema: &schema{Type: "integer"}},
	}

	notFound := jsonResponse("Character not found", ref("ApiError"))
	badRequest := jsonResponse("Invalid request", ref("ApiError"))

	paths := map[string]map[string]operation{
		"/api/health": {
			"get": op("health", "Health check", "health", nil, map[string]response{
				"200": jsonResponse("Service is healthy", ref("HealthResponse")),
			}),
		},
		"/api/runs": {
			"get": op("sts", "List runs with optional filters", "listRuns", runFilters, map[string]response{
				"200": jsonResponse("List of runs", arrayOf(ref("RunMetrics"))),
				"400": badRequest,
			}),
		},
		"/api/runs/{character}": {
			"get": op("sts", "List runs for one character", "characterRuns", []parameter{character}, map[string]response{
				"200": jsonResponse("List of runs", arrayOf(ref("RunMetrics"))),
				"404": notFound,
			}),
		},
		"/api/stats": {
			"get": op("sts", "Per-character aggregate stats", "listStats", nil, map[string]response{
				"200": jsonResponse("Stats for every character with runs", arrayOf(ref("CharacterStats"))),
			}),
		},
		"/api/stats/{character}": {
			"get": op("sts", "Aggregate stats for one character", "characterStats", []parameter{character}, map[string]response{
				"200": jsonResponse("Character stats", ref("CharacterStats")),
				"404": notFound,
			}),
		},
		"/api/export": {
			"get": op("sts", "All runs and stats with a timestamp", "export", nil, map[string]response{
				"200": jsonResponse("Export snapshot", ref("ExportData")),
			}),
		},
		"/api/characters": {
			"get": op("sts", "Playable characters", "listCharacters", nil, map[string]response{
				"200": jsonResponse("Characters", arrayOf(ref("CharacterInfo"))),
			}),
		},
		"/api/runs-path": {
			"get": op("config", "Runs directory configuration", "getRunsPath", nil, map[string]response{
				"200": jsonResponse("Path info", ref("PathInfo")),
			}),
			"put": func() operation {
				o := op("config", "Set a custom runs directory", "setRunsPath", nil, map[string]response{
					"200": jsonResponse("Path info", ref("PathInfo")),
					"400": badRequest,
				})
				o.RequestBody = &requestBody{Required: true, Content: map[string]mediaType{"application/json": {Schema: ref("SetPathRequest")}}}
				return o
			}(),
			"delete": op("config", "Clear the custom runs directory", "clearRunsPath", nil, map[string]response{
				"200": jsonResponse("Path info", ref("PathInfo")),
			}),
		},
		"/api/live": {
			"get": op("sts", "Websocket feed of export snapshots", "live", nil, map[string]response{
				"101": {Description: "Switching to websocket; each message is an ExportData document"},
			}),
		},
		OpenAPIPath: {
			"get": op("docs", "This document", "openapi", nil, map[string]response{
				"200": {Description: "OpenAPI 3 document"},
			}),
		},
	}

	return openAPIDoc{
		OpenAPI: "3.0.3",
		Info: openAPIInfo{
			Title:       "spirestats API",
			Description: "Slay the Spire run statistics",
			Version:     version,
		},
		Tags: []openAPITag{
			{Name: "health", Description: "Health check"},
			{Name: "sts", Description: "Run data and statistics"},
			{Name: "config", Description: "Runs directory configuration"},
			{Name: "docs", Description: "API description"},
		},
		Paths:      paths,
		Components: components{Schemas: schemas},
	}
}

func op(tag, summary, id string, params []parameter, responses map[string]response) operation {
	return operation{Tags: []string{tag}, Summary: summary, OperationID: id, Parameters: params, Responses: responses}
}

func jsonResponse(description string, s *schema) response {
	return response{Description: description, Content: map[string]mediaType{"application/json": {Schema: s}}}
}

func ref(name string) *schema {
	return &schema{Ref: "#/components/schemas/" + name}
}

func arrayOf(items *schema) *schema {
	return &schema{Type: "array", Items: items}
}

// structSchema describes t from its json tags. Pointer fields are nullable
// and optional; everything else is required.
func structSchema(t reflect.Type) *schema {
	out := &schema{Type: "object", Properties: map[string]*schema{}}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out.Properties[name] = typeSchema(f.Type)
		if f.Type.Kind() != reflect.Pointer && !strings.Contains(opts, "omitempty") {
			out.Required = append(out.Required, name)
		}
	}
	return out
}

func typeSchema(t reflect.Type) *schema {
	if name, ok := schemaTypes[t]; ok {
		return ref(name)
	}
	switch t.Kind() {
	case reflect.Pointer:
		s := typeSchema(t.Elem())
		if s.Ref != "" {
			return s
		}
		s.Nullable = true
		return s
	case reflect.Slice:
		return arrayOf(typeSchema(t.Elem()))
	case reflect.String:
		return &schema{Type: "string"}
	case reflect.Bool:
		return &schema{Type: "boolean"}
	case reflect.Int:
		return &schema{Type: "integer"}
	case reflect.Int32:
		return &schema{Type: "integer", Format: "int32"}
	case reflect.Int64:
		return &schema{Type: "integer", Format: "int64"}
	case reflect.Float32, reflect.Float64:
		return &schema{Type: "number", Format: "double"}
	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &schema{Type: "string", Format: "date-time"}
		}
		return structSchema(t)
	default:
		return &schema{}
	}
}
