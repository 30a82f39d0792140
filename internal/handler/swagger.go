package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dafibh/budget-tracker/budget-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

const jsonMediaType = "application/json"

// OpenAPI3Spec is the subset of an OpenAPI 3.0 document produced from the swag output
type OpenAPI3Spec struct {
	OpenAPI    string         `json:"openapi"`
	Info       map[string]any `json:"info"`
	Servers    []Server       `json:"servers"`
	Paths      map[string]any `json:"paths"`
	Components map[string]any `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// APIServers are advertised in the converted document
var APIServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://api.budget-tracker.app/api/v1", Description: "Production"},
}

var (
	openAPI3Once sync.Once
	openAPI3Doc  *OpenAPI3Spec
	openAPI3Err  error
)

// ServeOpenAPI3Spec serves the swag document converted to OpenAPI 3.0. The conversion runs once.
func ServeOpenAPI3Spec(c echo.Context) error {
	openAPI3Once.Do(func() {
		var doc string
		doc, openAPI3Err = swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if openAPI3Err == nil {
			openAPI3Doc, openAPI3Err = ConvertToOpenAPI3([]byte(doc), APIServers)
		}
	})
	if openAPI3Err != nil {
		log.Error().Err(openAPI3Err).Msg("Failed to build OpenAPI 3 document")
		return NewInternalError(c, "Failed to build API document")
	}
	return c.JSON(http.StatusOK, openAPI3Doc)
}

// ConvertToOpenAPI3 rewrites a Swagger 2.0 document: definitions move to components/schemas,
// body parameters become request bodies and response schemas get a JSON media type.
func ConvertToOpenAPI3(swagger2 []byte, servers []Server) (*OpenAPI3Spec, error) {
	var src map[string]any
	if err := json.Unmarshal(swagger2, &src); err != nil {
		return nil, fmt.Errorf("parse swagger document: %w", err)
	}

	out := &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Servers:    servers,
		Paths:      map[string]any{},
		Components: map[string]any{},
	}
	out.Info, _ = src["info"].(map[string]any)

	if defs, ok := src["definitions"].(map[string]any); ok {
		out.Components["schemas"] = rewriteRefs(defs)
	}
	if sec, ok := src["securityDefinitions"].(map[string]any); ok {
		out.Components["securitySchemes"] = sec
	}

	paths, _ := src["paths"].(map[string]any)
	for path, item := range paths {
		methods, ok := item.(map[string]any)
		if !ok {
			continue
		}
		converted := make(map[string]any, len(methods))
		for method, op := range methods {
			if opMap, ok := op.(map[string]any); ok {
				converted[method] = convertOperation(opMap)
			}
		}
		out.Paths[path] = converted
	}
	return out, nil
}

func convertOperation(op map[string]any) map[string]any {
	result := make(map[string]any, len(op))
	for k, v := range op {
		switch k {
		case "consumes", "produces":
			// folded into content below
		case "parameters":
			params, body := convertParameters(v)
			if len(params) > 0 {
				result["parameters"] = params
			}
			if body != nil {
				result["requestBody"] = body
			}
		case "responses":
			result["responses"] = convertResponses(v)
		default:
			result[k] = rewriteRefs(v)
		}
	}
	return result
}

func convertParameters(v any) ([]any, map[string]any) {
	list, _ := v.([]any)
	var (
		params []any
		body   map[string]any
	)
	for _, p := range list {
		param, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if param["in"] == "body" {
			body = map[string]any{
				"required": param["required"] == true,
				"content": map[string]any{
					jsonMediaType: map[string]any{"schema": rewriteRefs(param["schema"])},
				},
			}
			if desc, ok := param["description"]; ok {
				body["description"] = desc
			}
			continue
		}

		converted := make(map[string]any)
		schema := make(map[string]any)
		for key, val := range param {
			switch key {
			case "name", "in", "description", "required":
				converted[key] = val
			case "type", "format", "enum", "default", "minimum", "maximum", "items":
				schema[key] = rewriteRefs(val)
			}
		}
		if len(schema) > 0 {
			converted["schema"] = schema
		}
		params = append(params, converted)
	}
	return params, body
}

func convertResponses(v any) map[string]any {
	responses, _ := v.(map[string]any)
	result := make(map[string]any, len(responses))
	for code, r := range responses {
		resp, ok := r.(map[string]any)
		if !ok {
			continue
		}
		converted := map[string]any{"description": resp["description"]}
		if schema, ok := resp["schema"]; ok {
			converted["content"] = map[string]any{
				jsonMediaType: map[string]any{"schema": rewriteRefs(schema)},
			}
		}
		result[code] = converted
	}
	return result
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = rewriteRefs(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return data
	}
}
