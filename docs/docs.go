// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go`.
package docs

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
        "/polls": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Lists polls",
                "parameters": [
                    {"type": "string", "description": "Creator user id", "name": "creator", "in": "query"},
                    {"type": "string", "description": "active, closed or expired", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Poll"}}},
                    "400": {"description": "Bad Request"}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Creates a poll",
                "parameters": [
                    {"description": "Poll", "name": "poll", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.createPollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Poll"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/polls/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Gets a poll",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Poll"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Current results of a poll",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Snapshot"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/voted": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Whether the caller already voted",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.votedResponse"}},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/vote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Casts a vote",
                "parameters": [
                    {"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true},
                    {"description": "Chosen option", "name": "vote", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.voteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Snapshot"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"},
                    "429": {"description": "Too Many Requests"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/polls/{id}/close": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Closes a poll",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Poll"}},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/reset": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Resets a poll",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Poll"}},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/live": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["live"],
                "summary": "Live results (SSE)",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/ws": {
            "get": {
                "tags": ["live"],
                "summary": "Live results (WebSocket)",
                "parameters": [{"type": "integer", "description": "Poll id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "domain.Poll": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "creator": {"type": "string"},
                "created_at": {"type": "string"},
                "expiration_date": {"type": "string"},
                "status": {"type": "string"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/domain.PollOption"}},
                "users_voted": {"type": "array", "items": {"type": "string"}},
                "version": {"type": "integer"}
            }
        },
        "domain.PollOption": {
            "type": "object",
            "properties": {
                "option_id": {"type": "integer"},
                "text": {"type": "string"},
                "votes": {"type": "integer"}
            }
        },
        "domain.OptionResult": {
            "type": "object",
            "properties": {
                "option_id": {"type": "integer"},
                "text": {"type": "string"},
                "votes": {"type": "integer"},
                "percentage": {"type": "integer"}
            }
        },
        "domain.Snapshot": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "version": {"type": "integer"},
                "status": {"type": "string"},
                "total_votes": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/domain.OptionResult"}},
                "poll": {"$ref": "#/definitions/domain.Poll"}
            }
        },
        "http.createPollRequest": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "expiration_date": {"type": "string"}
            }
        },
        "http.voteRequest": {
            "type": "object",
            "properties": {"option_id": {"type": "integer"}}
        },
        "http.votedResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "voted": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Live Poll API",
	Description:      "Polls with single-vote ballots, lifecycle management and live results.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
