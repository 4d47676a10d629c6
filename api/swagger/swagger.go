package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Slot API",
        "description": "Oral exam slot scheduling for section rosters",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule", "description": "Bulk generation and regeneration"},
        {"name": "Slots", "description": "Single-slot operations and locks"},
        {"name": "Transfers", "description": "Cohort transfers and swaps"},
        {"name": "Students", "description": "Exam roster"},
        {"name": "Settings", "description": "Scheduling configuration"},
        {"name": "Overview", "description": "Dashboard aggregation"},
        {"name": "Export", "description": "Schedule documents and calendar feeds"}
    ],
    "paths": {
        "/schedule/generate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate schedules for every active section",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/sections/{id}/regenerate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Regenerate one section's schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RegenerateSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/schedule/students/regenerate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Regenerate one student's unlocked slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegenerateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "delete": {
                "tags": ["Schedule"],
                "summary": "Clear the whole schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Locked slots present"}
                }
            }
        },
        "/transfers/cohort": {
            "post": {
                "tags": ["Transfers"],
                "summary": "Move a student to a target cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferCohortRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Locked slots block the transfer"}
                }
            }
        },
        "/transfers/swap": {
            "post": {
                "tags": ["Transfers"],
                "summary": "Force a student onto the opposite cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapCohortRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}": {
            "get": {
                "tags": ["Slots"],
                "summary": "Get one exam slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}/history": {
            "get": {
                "tags": ["Slots"],
                "summary": "Get a slot's current state and change log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}/schedule": {
            "put": {
                "tags": ["Slots"],
                "summary": "Manually place a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ManualScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlap or locked conflict"}
                }
            }
        },
        "/slots/{id}/swap": {
            "post": {
                "tags": ["Slots"],
                "summary": "Swap two slots' scheduled positions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}/lock": {
            "post": {
                "tags": ["Slots"],
                "summary": "Lock a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}/unlock": {
            "post": {
                "tags": ["Slots"],
                "summary": "Unlock a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/{id}/revert": {
            "post": {
                "tags": ["Slots"],
                "summary": "Revert a slot to a history snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RevertSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Snapshot belongs to another slot"}
                }
            }
        },
        "/slots/unlock": {
            "post": {
                "tags": ["Slots"],
                "summary": "Release locked slots",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/BulkUnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots/auto-lock": {
            "post": {
                "tags": ["Slots"],
                "summary": "Lock all scheduled slots on a date",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/AutoLockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List active students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sectionId", "in": "query", "type": "string"},
                    {"name": "cohort", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student with their slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update roster fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/students/{id}/constraints": {
            "get": {
                "tags": ["Students"],
                "summary": "List a student's scheduling constraints",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/history": {
            "get": {
                "tags": ["Students"],
                "summary": "List every slot change for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/calendar.ics": {
            "get": {
                "tags": ["Export"],
                "summary": "Per-student iCalendar feed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "ICS document"}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List persisted settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update one setting",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/schedule": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get the merged schedule configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/bulk": {
            "put": {
                "tags": ["Settings"],
                "summary": "Update several settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overview": {
            "get": {
                "tags": ["Overview"],
                "summary": "Per-section scheduling overview",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/schedule": {
            "get": {
                "tags": ["Export"],
                "summary": "Export the schedule",
                "parameters": [
                    {"name": "sectionId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv|xlsx|pdf"}
                ],
                "responses": {
                    "200": {"description": "Document"}
                }
            }
        }
    },
    "definitions": {
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "fromExam": {"type": "integer", "minimum": 1}
            }
        },
        "RegenerateSectionRequest": {
            "type": "object",
            "properties": {
                "fromExam": {"type": "integer"}
            }
        },
        "RegenerateStudentRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "string"},
                "fromExam": {"type": "integer"}
            }
        },
        "TransferCohortRequest": {
            "type": "object",
            "required": ["studentId", "targetCohort"],
            "properties": {
                "studentId": {"type": "string"},
                "targetCohort": {"type": "string", "enum": ["odd", "even"]},
                "fromExam": {"type": "integer"}
            }
        },
        "SwapCohortRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "string"},
                "fromExam": {"type": "integer"}
            }
        },
        "ManualScheduleRequest": {
            "type": "object",
            "required": ["date", "startTime"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string", "example": "13:38"},
                "pushSubsequent": {"type": "boolean"}
            }
        },
        "SwapSlotsRequest": {
            "type": "object",
            "required": ["otherSlotId"],
            "properties": {
                "otherSlotId": {"type": "string"}
            }
        },
        "RevertSlotRequest": {
            "type": "object",
            "required": ["historyId"],
            "properties": {
                "historyId": {"type": "string"}
            }
        },
        "AutoLockRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"}
            }
        },
        "BulkUnlockRequest": {
            "type": "object",
            "properties": {
                "examNumber": {"type": "integer"},
                "cohort": {"type": "string", "enum": ["odd", "even"]}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["sisUserId", "fullName", "email"],
            "properties": {
                "sisUserId": {"type": "string"},
                "fullName": {"type": "string"},
                "email": {"type": "string"},
                "sectionId": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "email": {"type": "string"},
                "sectionId": {"type": "string"},
                "sectionOverride": {"type": "boolean"}
            }
        },
        "UpdateSettingRequest": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
                "key": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "BulkUpdateSettingRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/UpdateSettingRequest"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
