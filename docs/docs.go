// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package docs registers the Reviewscope OpenAPI document with swag.
// The document follows the @-annotations on the handlers in internal/api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/restaurant/{business_id}": {
            "get": {
                "description": "Precomputed sentiment, keywords and customer archetypes for one business, with the legacy duplicate keys. Errors use a {\"detail\": ...} body.",
                "produces": ["application/json"],
                "tags": ["Legacy"],
                "summary": "Legacy restaurant dashboard",
                "parameters": [
                    {"type": "string", "description": "Business ID", "name": "business_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dashboard.LegacyRecord"}},
                    "404": {"description": "Restaurant not found", "schema": {"$ref": "#/definitions/api.LegacyError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.LegacyError"}}
                }
            }
        },
        "/predict_star": {
            "post": {
                "description": "Predicts 1 or 5 stars for a review text. Falls back to a keyword heuristic when no model is loaded.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Legacy"],
                "summary": "Legacy star prediction",
                "parameters": [
                    {"description": "Review text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.legacyPrediction"}},
                    "422": {"description": "Malformed body", "schema": {"$ref": "#/definitions/api.LegacyError"}}
                }
            }
        },
        "/api/v1/businesses/{business_id}/dashboard": {
            "get": {
                "description": "Precomputed sentiment, keywords and customer archetypes for one business",
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Business dashboard",
                "parameters": [
                    {"type": "string", "description": "Business ID", "name": "business_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/dashboard.Record"}}}]}},
                    "400": {"description": "Malformed business id", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Business not found", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/api/v1/classify": {
            "post": {
                "description": "Predicts 1 or 5 stars and reports whether the trained model or the keyword heuristic answered",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Classifier"],
                "summary": "Classify review text",
                "parameters": [
                    {"description": "Review text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/classifier.Prediction"}}}]}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/api/v1/model": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Classifier"],
                "summary": "Classifier model state",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.ModelInfo"}}}]}}
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "description": "Store connectivity, classifier state and dashboard breaker state. A missing model is not unhealthy; the heuristic serves.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.HealthStatus"}}}]}}
                }
            }
        },
        "/api/v1/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "Service is alive", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/api/v1/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Service is ready", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service is not ready", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "api.APIMeta": {
            "type": "object",
            "properties": {
                "duration_ms": {"type": "integer"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/api.APIError"},
                "meta": {"$ref": "#/definitions/api.APIMeta"},
                "success": {"type": "boolean"}
            }
        },
        "api.ClassifyRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string", "example": "The tacos were great and the staff friendly"}
            }
        },
        "api.HealthStatus": {
            "type": "object",
            "properties": {
                "breaker_state": {"type": "string", "example": "closed"},
                "database_connected": {"type": "boolean"},
                "model_state": {"type": "string", "example": "MODEL_LOADED"},
                "status": {"type": "string", "example": "healthy"},
                "uptime_seconds": {"type": "number"},
                "version": {"type": "string"}
            }
        },
        "api.LegacyError": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "api.ModelInfo": {
            "type": "object",
            "properties": {
                "artifact": {"$ref": "#/definitions/classifier.ArtifactMetadata"},
                "state": {"type": "string", "example": "MODEL_LOADED"}
            }
        },
        "api.legacyPrediction": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number", "example": 0.8},
                "predicted_star": {"type": "integer", "example": 5}
            }
        },
        "classifier.ArtifactMetadata": {
            "type": "object",
            "properties": {
                "accuracy": {"type": "number"},
                "checksum": {"type": "string"},
                "features": {"type": "integer"},
                "format": {"type": "integer"},
                "iterations": {"type": "integer"},
                "saved_at": {"type": "string"},
                "size_bytes": {"type": "integer"},
                "test_rows": {"type": "integer"},
                "train_rows": {"type": "integer"},
                "trained_at": {"type": "string"},
                "training_duration_ms": {"type": "integer"}
            }
        },
        "classifier.Prediction": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number", "example": 0.8},
                "path": {"type": "string", "enum": ["model", "heuristic"]},
                "predicted_star": {"type": "integer", "enum": [1, 5]}
            }
        },
        "dashboard.Archetype": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "type": {"type": "integer"}
            }
        },
        "dashboard.Record": {
            "type": "object",
            "properties": {
                "business_id": {"type": "string"},
                "city": {"type": "string"},
                "customer_archetypes": {"type": "array", "items": {"$ref": "#/definitions/dashboard.Archetype"}},
                "name": {"type": "string"},
                "negative_keywords": {"type": "array", "items": {"type": "string"}},
                "positive_keywords": {"type": "array", "items": {"type": "string"}},
                "positivity_score": {"type": "number"},
                "review_count": {"type": "integer"},
                "stars": {"type": "number"}
            }
        },
        "dashboard.LegacyRecord": {
            "allOf": [
                {"$ref": "#/definitions/dashboard.Record"},
                {
                    "type": "object",
                    "properties": {
                        "restaurant_name": {"type": "string"},
                        "top_negative_keywords": {"type": "array", "items": {"type": "string"}},
                        "top_positive_keywords": {"type": "array", "items": {"type": "string"}}
                    }
                }
            ]
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reviewscope API",
	Description:      "Precomputed review analytics: business dashboards and star classification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
