// Package docs is generated by swag from the handler annotations in
// internal/platform/httpserver. Regenerate with swag init; do not edit.
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
        "/v1/instructions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["instructions"],
                "summary": "Execute a tagged ledger instruction",
                "parameters": [
                    {"type": "string", "description": "caller principal", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pollhttp.InstructionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/polls": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Create a poll",
                "parameters": [
                    {"description": "poll", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/pollhttp.CreatePollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/pollhttp.PollResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/candidates": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Register a candidate under a poll",
                "parameters": [
                    {"type": "integer", "description": "poll id", "name": "poll_id", "in": "path", "required": true},
                    {"description": "candidate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/pollhttp.RegisterCandidateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/pollhttp.CandidateResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/tally": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Reconcile a poll tally",
                "parameters": [
                    {"type": "integer", "description": "poll id", "name": "poll_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pollhttp.TallyResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Cast a vote",
                "parameters": [
                    {"type": "integer", "description": "poll id", "name": "poll_id", "in": "path", "required": true},
                    {"type": "string", "description": "voter principal", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "vote", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/pollhttp.CastVoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/pollhttp.VoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/pollhttp.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "pollhttp.CandidateResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "poll_id": {"type": "integer"},
                "vote_count": {"type": "integer"}
            }
        },
        "pollhttp.CandidateTallyItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "vote_count": {"type": "integer"}
            }
        },
        "pollhttp.CastVoteRequest": {
            "type": "object",
            "properties": {
                "candidate_name": {"type": "string"}
            }
        },
        "pollhttp.CreatePollRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "end_time": {"type": "integer"},
                "poll_id": {"type": "integer"},
                "start_time": {"type": "integer"}
            }
        },
        "pollhttp.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "pollhttp.InstructionResponse": {
            "type": "object",
            "properties": {
                "candidate": {"$ref": "#/definitions/pollhttp.CandidateResponse"},
                "op": {"type": "string"},
                "poll": {"$ref": "#/definitions/pollhttp.PollResponse"},
                "tally": {"$ref": "#/definitions/pollhttp.TallyResponse"}
            }
        },
        "pollhttp.PollResponse": {
            "type": "object",
            "properties": {
                "candidate_count": {"type": "integer"},
                "description": {"type": "string"},
                "end_time": {"type": "integer"},
                "open": {"type": "boolean"},
                "poll_id": {"type": "integer"},
                "start_time": {"type": "integer"},
                "total_votes": {"type": "integer"}
            }
        },
        "pollhttp.RegisterCandidateRequest": {
            "type": "object",
            "properties": {
                "candidate_name": {"type": "string"}
            }
        },
        "pollhttp.TallyResponse": {
            "type": "object",
            "properties": {
                "candidate_count": {"type": "integer"},
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/pollhttp.CandidateTallyItem"}},
                "description": {"type": "string"},
                "poll_id": {"type": "integer"},
                "total_votes": {"type": "integer"}
            }
        },
        "pollhttp.VoteResponse": {
            "type": "object",
            "properties": {
                "candidate_name": {"type": "string"},
                "candidate_votes": {"type": "integer"},
                "cast_at": {"type": "integer"},
                "poll_id": {"type": "integer"},
                "total_votes": {"type": "integer"},
                "voter": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pollchain API",
	Description:      "Poll ledger: polls, candidates, single-admission votes and tally reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
