package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Realtime API",
        "description": "Role-scoped school API with websocket notifications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication"},
        {"name": "Students"},
        {"name": "Classes"},
        {"name": "Assignments"},
        {"name": "Attendance"},
        {"name": "Grades"},
        {"name": "Events"},
        {"name": "Announcements"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ]
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Search by name or NIS"
                    },
                    {
                        "name": "classId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter by class"
                    },
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/students/{studentId}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Student ID"
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/parents/me/children": {
            "get": {
                "tags": ["Students"],
                "summary": "List the caller's children",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List visible classes",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "classId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter by class"
                    },
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignment",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/assignments/{id}": {
            "put": {
                "tags": ["Assignments"],
                "summary": "Update assignment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Assignment ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateAssignmentRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Delete assignment",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Assignment ID"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "studentId", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "from", "in": "query", "type": "string", "required": false, "description": "YYYY-MM-DD"},
                    {"name": "to", "in": "query", "type": "string", "required": false, "description": "YYYY-MM-DD"},
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/classes/{classId}/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a student of a class",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "classId", "in": "path", "type": "string", "required": true, "description": "Class ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grades",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "studentId", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "subject", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/classes/{classId}/grades": {
            "post": {
                "tags": ["Grades"],
                "summary": "Record a grade",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "classId", "in": "path", "type": "string", "required": true, "description": "Class ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RecordGradeRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "SCHEDULED, COMPLETED or CANCELLED"
                    },
                    {"name": "from", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "to", "in": "query", "type": "string", "required": false, "description": ""},
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EventRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/events/{id}": {
            "put": {
                "tags": ["Events"],
                "summary": "Update event",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Event ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/EventRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete event",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Event ID"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "includeArchived", "in": "query", "type": "boolean", "required": false, "description": ""},
                    {"name": "page", "in": "query", "type": "integer", "required": false, "description": "Page"},
                    {"name": "limit", "in": "query", "type": "integer", "required": false, "description": "Page size"}
                ],
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Publish announcement",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AnnouncementRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/announcements/unread-count": {
            "get": {
                "tags": ["Announcements"],
                "summary": "Count unread announcements",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/announcements/{id}": {
            "put": {
                "tags": ["Announcements"],
                "summary": "Update announcement",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Announcement ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AnnouncementRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Announcements"],
                "summary": "Delete announcement",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Announcement ID"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/announcements/{id}/read": {
            "post": {
                "tags": ["Announcements"],
                "summary": "Mark announcement as read",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Announcement ID"}
                ],
                "security": [{"BearerAuth": []}]
            }
        },
        "/announcements/{id}/archive": {
            "patch": {
                "tags": ["Announcements"],
                "summary": "Archive or restore announcement",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "401": {
                        "description": "Unauthenticated",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                },
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Announcement ID"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ArchiveRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}]
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "class_id": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"}
            },
            "required": ["title", "class_id", "due_date"]
        },
        "UpdateAssignmentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"}
            },
            "required": ["title", "due_date"]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "notes": {"type": "string"}
            },
            "required": ["student_id", "date", "status"]
        },
        "RecordGradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject": {"type": "string"},
                "score": {"type": "number"}
            },
            "required": ["student_id", "subject"]
        },
        "EventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "target_roles": {
                    "type": "array",
                    "items": {"type": "string", "enum": ["SUPER_ADMIN", "ADMIN", "TEACHER", "PARENT", "STUDENT"]}
                },
                "class_id": {"type": "string"}
            },
            "required": ["title", "start_time", "end_time"]
        },
        "AnnouncementRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "priority": {"type": "string", "enum": ["LOW", "NORMAL", "HIGH"]},
                "target_roles": {
                    "type": "array",
                    "items": {"type": "string", "enum": ["SUPER_ADMIN", "ADMIN", "TEACHER", "PARENT", "STUDENT"]}
                },
                "class_id": {"type": "string"}
            },
            "required": ["title", "content"]
        },
        "ArchiveRequest": {
            "type": "object",
            "properties": {
                "is_archived": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
