package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/messages": {
            "post": {
                "consumes": ["application/octet-stream"],
                "produces": ["application/octet-stream"],
                "tags": ["device"],
                "summary": "Exchange one protocol message",
                "responses": {
                    "200": {"description": "Reply message"},
                    "400": {"description": "Malformed or unknown message"},
                    "422": {"description": "Message not accepted by the controller"}
                }
            }
        },
        "/command": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operator"],
                "summary": "Current operator command",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["operator"],
                "summary": "Set the operator command",
                "security": [{"ApiKeyAuth": []}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/mode": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operator"],
                "summary": "Current reply mode",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["operator"],
                "summary": "Switch reply mode",
                "security": [{"ApiKeyAuth": []}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown mode"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/frames": {
            "get": {
                "produces": ["application/json"],
                "tags": ["frames"],
                "summary": "List training frames",
                "parameters": [
                    {"type": "string", "name": "after", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/frames/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["frames"],
                "summary": "Describe one training frame",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/frames/{id}/image": {
            "get": {
                "produces": ["image/jpeg"],
                "tags": ["frames"],
                "summary": "Camera frame of one training sample",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "drivelog controller API",
	Description:      "Device message exchange, operator control and training frames.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
