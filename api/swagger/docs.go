// Package swagger registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o api/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/projects": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["projects"], "summary": "Create project", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["projects"], "summary": "Get project", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/budget-lines": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "List budget lines", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Create budget line", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}/budget-lines/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Update budget line", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Delete budget line", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/commitments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "List commitments", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Create commitment", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}/commitments/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Update commitment", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Delete commitment", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/actual-costs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "List actual costs", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Create actual cost", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}/actual-costs/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Update actual cost", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Delete actual cost", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/forecasts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "List forecasts", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Upsert forecast", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}/forecasts/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Update forecast", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["ledgers"], "summary": "Delete forecast", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/variations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "List variations", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "Create variation", "responses": {"201": {"description": "Created"}}}
        },
        "/api/projects/{projectId}/variations/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "Get variation", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "Update variation", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/variations/{id}/status": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "Change variation status", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/projects/{projectId}/variations/{id}/history": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["variations"], "summary": "Variation status history", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/snapshot": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["snapshot"], "summary": "Get project snapshot", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/snapshot/recompute": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["snapshot"], "summary": "Recompute project snapshot", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/cvr/totals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["cvr"], "summary": "CVR totals", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/cvr/cost-codes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["cvr"], "summary": "CVR by cost code", "responses": {"200": {"description": "OK"}}}
        },
        "/api/projects/{projectId}/cvr/periods/{period}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["cvr"], "summary": "CVR for a period", "responses": {"200": {"description": "OK"}}}
        },
        "/api/audit-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Project Financial Control API",
	Description:      "Variations, project snapshots and cost/value reconciliation for construction projects.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
