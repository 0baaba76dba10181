// Package docs registers the OpenAPI description of the status API with swag,
// served by gin-swagger under /swagger/index.html.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/controller/state": {
            "get": {
                "description": "Last snapshot written by the control loop: mode, slot, temperatures, device flags and fault codes.",
                "produces": ["application/json"],
                "tags": ["controller"],
                "summary": "Get controller state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ControllerState"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/controller/schedule": {
            "get": {
                "description": "Configured slots in evaluation order and the slot active at the given time of day (default: now).",
                "produces": ["application/json"],
                "tags": ["controller"],
                "summary": "Get schedule",
                "parameters": [
                    {"type": "string", "example": "10:40", "description": "Time of day, HH:MM", "name": "at", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ScheduleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Filter logs by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List logs",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range", "name": "to", "in": "query"},
                    {
                        "enum": ["STARTUP", "SHUTDOWN", "MODE_CHANGE", "TARGET_SET", "TARGET_CLEARED", "SENSOR_ERROR", "ACTUATOR_ERROR"],
                        "type": "string", "description": "Event type", "name": "type", "in": "query"
                    },
                    {"type": "integer", "description": "Keep only the newest N events", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ScheduleResponse": {
            "type": "object",
            "properties": {
                "active": {"$ref": "#/definitions/handlers.SlotResponse"},
                "at": {"type": "string", "example": "10:40"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/handlers.SlotResponse"}}
            }
        },
        "handlers.SlotResponse": {
            "type": "object",
            "properties": {
                "known": {"type": "boolean", "example": true},
                "mode": {"type": "string", "example": "heat"},
                "range": {"type": "string", "example": "10:20-10:35"}
            }
        },
        "models.ControllerState": {
            "type": "object",
            "properties": {
                "current_temp_c": {"type": "number"},
                "error_codes": {"type": "array", "items": {"type": "string"}},
                "heater_on": {"type": "boolean"},
                "id": {"type": "integer"},
                "light_on": {"type": "boolean"},
                "mode": {"type": "string"},
                "slot": {"type": "string"},
                "target_temp_c": {"type": "number"},
                "updated_at": {"type": "string"}
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
	Title:            "Chamber controller API",
	Description:      "Read-only status API of the grow-chamber controller.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
