// Package docs holds the swagger document for the background API.
// Regenerate with `go generate ./internal/server`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "PhishGuard Maintainers",
            "url": "https://github.com/raysh454/phishguard"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "Merged remote and local statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Stats"}}
                }
            }
        },
        "/api/scans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "Local scan log, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ScanLogRecord"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/badge": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "Current badge",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/presenter.Badge"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "Backend scan history",
                "parameters": [
                    {"type": "integer", "description": "maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.HistoryEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/tabs/{tabID}/analysis": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "Quick-view analysis saved for a tab",
                "parameters": [
                    {"type": "string", "description": "tab id", "name": "tabID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AnalysisResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.AnalysisResult": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "risk_score": {"type": "number"},
                "risk_level": {"type": "string", "enum": ["safe", "suspicious", "dangerous", "unknown"]},
                "confidence": {"type": "number"},
                "recommendations": {"type": "array", "items": {"type": "string"}},
                "allow_access": {"type": "boolean"},
                "scan_time": {"type": "number"},
                "features": {"type": "object", "additionalProperties": true},
                "error": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "model.HistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "url": {"type": "string"},
                "risk_level": {"type": "string"},
                "risk_score": {"type": "number"},
                "confidence": {"type": "number"},
                "timestamp": {"type": "string"},
                "scan_time": {"type": "number"}
            }
        },
        "model.ScanLogRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "url": {"type": "string"},
                "risk_level": {"type": "string"},
                "risk_score": {"type": "number"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "model.Stats": {
            "type": "object",
            "properties": {
                "total_scans": {"type": "integer"},
                "phishing_detected": {"type": "integer"},
                "safe_urls": {"type": "integer"},
                "suspicious_urls": {"type": "integer"},
                "localScans": {"type": "integer"},
                "localBlocked": {"type": "integer"},
                "error": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "presenter.Badge": {
            "type": "object",
            "properties": {
                "color": {"type": "string", "example": "#EF4444"},
                "text": {"type": "string", "example": "!"},
                "risk_level": {"type": "string"},
                "url": {"type": "string"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "not found"}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "cache_entries": {"type": "integer", "example": 12}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PhishGuard API",
	Description:      "Read API and message bridge of the PhishGuard background service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
