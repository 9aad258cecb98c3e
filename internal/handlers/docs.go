package handlers

import (
	"encoding/json"
	"net/http"
)

// swaggerPage embeds the hosted Swagger UI distribution and points it at the
// served document. Kept as a plain string; nothing in it is interpolated.
const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Climate Coverage API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
</head>
<body style="margin:0">
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
<script>
window.onload = () => {
	SwaggerUIBundle({
		url: "/api/docs/openapi.json",
		dom_id: "#docs",
		deepLinking: true,
	});
};
</script>
</body>
</html>`

// SwaggerUI serves the interactive documentation page.
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(swaggerPage))
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Climate Coverage API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	stationIDParam := map[string]interface{}{
		"name":        "id",
		"in":          "path",
		"description": "Station identifier",
		"required":    true,
		"schema":      map[string]string{"type": "integer"},
	}
	datasetParam := map[string]interface{}{
		"name":        "dataset",
		"in":          "query",
		"description": "Dataset key (default: kl-daily)",
		"required":    false,
		"schema":      map[string]interface{}{"type": "string", "enum": []string{"kl-daily", "tu-hourly"}},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate Coverage API",
			"description": "Climate station ingestion and data-coverage analysis over archived measurement series",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Climate Coverage Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List stations",
					"description": "Retrieve station directory entries with pagination; high_water_mark is scoped to the requested dataset",
					"parameters": []map[string]interface{}{
						datasetParam,
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":              map[string]string{"type": "integer"},
														"name":            map[string]string{"type": "string"},
														"region":          map[string]string{"type": "string"},
														"region_short":    map[string]string{"type": "string"},
														"elevation":       map[string]string{"type": "integer"},
														"latitude":        map[string]string{"type": "number"},
														"longitude":       map[string]string{"type": "number"},
														"valid_from":      map[string]string{"type": "string"},
														"valid_to":        map[string]string{"type": "string"},
														"high_water_mark": map[string]string{"type": "string"},
													},
												},
											},
											"page":  map[string]string{"type": "integer"},
											"limit": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/stations/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get station",
					"description": "Retrieve one station directory entry; high_water_mark is scoped to the requested dataset",
					"parameters":  []map[string]interface{}{stationIDParam, datasetParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "Station not in directory"},
					},
				},
			},
			"/api/stations/{id}/timeframes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get timeframes",
					"description": "Segment the station's stored series into maximal runs of identical data-availability patterns, with explicit no-data frames over gaps",
					"parameters": []map[string]interface{}{
						stationIDParam,
						datasetParam,
						{
							"name":        "rows",
							"in":          "query",
							"description": "Include stored rows bordering each frame (true/false)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "boolean", "default": false},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"fields": map[string]interface{}{
												"type":  "array",
												"items": map[string]string{"type": "string"},
											},
											"timeframes": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"from":       map[string]string{"type": "string"},
														"to":         map[string]string{"type": "string"},
														"indicators": map[string]string{"type": "string"},
														"days":       map[string]string{"type": "integer"},
													},
												},
											},
										},
									},
								},
							},
						},
						"404": map[string]interface{}{"description": "No readings stored for station"},
					},
				},
			},
			"/api/stations/{id}/coverage": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get coverage report",
					"description": "Per-year missing counts per measurement field, plus the oldest year each field is uninterruptedly usable from",
					"parameters": []map[string]interface{}{
						stationIDParam,
						datasetParam,
						{
							"name":        "tolerance",
							"in":          "query",
							"description": "Maximum missing units per year still counted as usable (default: 0)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 0},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"station_id": map[string]string{"type": "integer"},
											"dataset":    map[string]string{"type": "string"},
											"years": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"year":  map[string]string{"type": "integer"},
														"units": map[string]string{"type": "integer"},
														"missing": map[string]interface{}{
															"type":  "array",
															"items": map[string]string{"type": "integer"},
														},
													},
												},
											},
											"good_from": map[string]interface{}{
												"type":                 "object",
												"additionalProperties": map[string]string{"type": "integer"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
