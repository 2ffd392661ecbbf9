// Package apidocs holds the OpenAPI document for the HTTP API in pkg/api.
// Regenerate it with go generate ./cmd/stepwise after changing handler
// annotations.
package apidocs

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
		"/login": {
			"post": {
				"description": "Checks the credentials and starts a session on task 1. The session cookie is set on success.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Session"
				],
				"summary": "Log in",
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.loginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.loginResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/logout": {
			"post": {
				"description": "Destroys the current session, if any, and clears the cookie.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Session"
				],
				"summary": "Log out",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.messageResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				}
			}
		},
		"/session": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Session"
				],
				"summary": "Current session",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.sessionResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/set-task": {
			"post": {
				"description": "Sets the current task number. A missing or non-positive number is rejected and leaves the session unchanged.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Session"
				],
				"summary": "Switch task",
				"parameters": [
					{
						"description": "Task number",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.setTaskRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.setTaskResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/upload": {
			"post": {
				"description": "Appends a save event for the current task. The body must be a JSON object, or a string holding one; its string \"code\" member is what load_latest_code returns.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Activity"
				],
				"summary": "Save code",
				"parameters": [
					{
						"description": "Checkpoint name and body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.uploadRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.uploadResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/load_latest_code": {
			"get": {
				"description": "Returns the code of the newest run, advice or save event of a task.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Activity"
				],
				"summary": "Latest code",
				"parameters": [
					{
						"type": "integer",
						"description": "Task number (default: current task)",
						"name": "taskNumber",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.latestCodeResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/history": {
			"get": {
				"description": "Lists the events of a task, newest first.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Activity"
				],
				"summary": "Activity history",
				"parameters": [
					{
						"type": "integer",
						"description": "Task number (default: current task)",
						"name": "taskNumber",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Maximum events (default: 20, max: 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.historyResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/run-code": {
			"post": {
				"description": "Executes the code on the sandbox and returns its answer unchanged. A run event is recorded afterwards.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Proxy"
				],
				"summary": "Run code",
				"parameters": [
					{
						"description": "Program",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.runCodeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/execution.Result"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.upstreamResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.upstreamResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		},
		"/ai-advice": {
			"post": {
				"description": "Asks the tutor model for stepwise-refinement advice. An ai-help event is recorded only for a well-formed answer.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Proxy"
				],
				"summary": "Request advice",
				"parameters": [
					{
						"description": "Task and code",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/api.adviceRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/advice.Result"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/api.errorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.upstreamResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.upstreamResponse"
						}
					}
				},
				"security": [
					{
						"SessionCookie": []
					}
				]
			}
		}
	},
	"definitions": {
		"activity.Envelope": {
			"type": "object",
			"properties": {
				"advice": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/advice.Step"
					}
				},
				"body": {
					"type": "object"
				},
				"checkpoint": {
					"type": "string"
				},
				"code": {
					"type": "string"
				},
				"estimated_stage": {
					"$ref": "#/definitions/advice.Stage"
				},
				"event": {
					"$ref": "#/definitions/activity.EventType"
				},
				"hintsUsed": {
					"type": "integer"
				},
				"id": {
					"type": "string"
				},
				"processing_structure": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/advice.Step"
					}
				},
				"stderr": {
					"type": "string"
				},
				"stdout": {
					"type": "string"
				},
				"taskNumber": {
					"type": "integer"
				},
				"timestamp": {
					"type": "string"
				},
				"userId": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"activity.EventType": {
			"type": "string",
			"enum": [
				"run",
				"ai-help",
				"save"
			],
			"x-enum-varnames": [
				"EventRun",
				"EventAIHelp",
				"EventSave"
			]
		},
		"advice.Result": {
			"type": "object",
			"properties": {
				"advice": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/advice.Step"
					}
				},
				"estimated_stage": {
					"$ref": "#/definitions/advice.Stage"
				},
				"processing_structure": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/advice.Step"
					}
				}
			}
		},
		"advice.Stage": {
			"type": "string",
			"enum": [
				"課題の理解",
				"処理の大枠決定",
				"処理の詳細化",
				"コード化",
				"コードの整合性確認"
			],
			"x-enum-varnames": [
				"StageUnderstanding",
				"StageOutline",
				"StageDetailing",
				"StageCoding",
				"StageConsistency"
			]
		},
		"advice.Step": {
			"type": "object",
			"properties": {
				"level": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				},
				"text": {
					"type": "string"
				}
			}
		},
		"api.adviceRequest": {
			"type": "object",
			"properties": {
				"hintsUsed": {
					"type": "integer"
				},
				"studentCode": {
					"type": "string"
				},
				"task": {
					"type": "string"
				},
				"taskNumber": {
					"type": "integer"
				}
			}
		},
		"api.errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"api.historyResponse": {
			"type": "object",
			"properties": {
				"events": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/activity.Envelope"
					}
				},
				"taskNumber": {
					"type": "integer"
				}
			}
		},
		"api.latestCodeResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				}
			}
		},
		"api.loginRequest": {
			"type": "object",
			"properties": {
				"password": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"api.loginResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/api.userView"
				}
			}
		},
		"api.messageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"api.runCodeRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"language": {
					"type": "string"
				},
				"stdin": {
					"type": "string"
				},
				"taskNumber": {
					"type": "integer"
				},
				"version": {
					"type": "string"
				}
			}
		},
		"api.sessionResponse": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/api.userView"
				}
			}
		},
		"api.setTaskRequest": {
			"type": "object",
			"properties": {
				"taskNumber": {
					"type": "integer"
				}
			}
		},
		"api.setTaskResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"taskNumber": {
					"type": "integer"
				}
			}
		},
		"api.uploadRequest": {
			"type": "object",
			"properties": {
				"body": {
					"type": "object"
				},
				"key": {
					"type": "string"
				}
			}
		},
		"api.uploadResponse": {
			"type": "object",
			"properties": {
				"key": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"api.upstreamResponse": {
			"type": "object",
			"properties": {
				"details": {},
				"error": {
					"type": "string"
				},
				"retryable": {
					"type": "boolean"
				}
			}
		},
		"api.userView": {
			"type": "object",
			"properties": {
				"taskNumber": {
					"type": "integer"
				},
				"userId": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"execution.Result": {
			"type": "object",
			"properties": {
				"compile": {
					"$ref": "#/definitions/execution.Stage"
				},
				"language": {
					"type": "string"
				},
				"run": {
					"$ref": "#/definitions/execution.Stage"
				},
				"version": {
					"type": "string"
				}
			}
		},
		"execution.Stage": {
			"type": "object",
			"properties": {
				"code": {
					"type": "integer"
				},
				"output": {
					"type": "string"
				},
				"signal": {
					"type": "string"
				},
				"stderr": {
					"type": "string"
				},
				"stdout": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"SessionCookie": {
			"description": "Session cookie set by /login (stepwise_session=...).",
			"type": "apiKey",
			"name": "Cookie",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "stepwise API",
	Description:      "Student-facing API of the stepwise coding-practice backend: sessions, code execution, advice and the activity log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
