// Package docs 提供 /swagger 使用的 OpenAPI 文档，内容与 handle 包中的 swag 注释保持一致.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "yeisme"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/login": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["会话"],
                "summary": "登录",
                "description": "校验用户名密码，成功后通过 Set-Cookie 下发会话",
                "parameters": [
                    {
                        "description": "用户名与密码",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handle.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "ok 与当前用户", "schema": {"$ref": "#/definitions/handle.userResponse"}},
                    "401": {"description": "用户名或密码错误", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "500": {"description": "服务器内部错误", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            }
        },
        "/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["会话"],
                "summary": "退出登录",
                "responses": {
                    "200": {"description": "ok", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            }
        },
        "/api/users": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "注册",
                "description": "创建用户并建立会话，校验失败时返回全部错误码",
                "parameters": [
                    {
                        "description": "注册信息",
                        "name": "user",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/users.CreateInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "ok 与新用户", "schema": {"$ref": "#/definitions/handle.userResponse"}},
                    "422": {"description": "校验失败", "schema": {"$ref": "#/definitions/handle.userErrorsResponse"}},
                    "500": {"description": "服务器内部错误", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "当前用户",
                "responses": {
                    "200": {"description": "ok 与当前用户", "schema": {"$ref": "#/definitions/handle.userResponse"}},
                    "403": {"description": "未登录", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "修改资料",
                "parameters": [
                    {
                        "description": "需要修改的字段",
                        "name": "user",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/users.UpdateInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "ok 与修改后的用户", "schema": {"$ref": "#/definitions/handle.userResponse"}},
                    "400": {"description": "请求体不是合法 JSON", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "403": {"description": "未登录", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "422": {"description": "校验失败", "schema": {"$ref": "#/definitions/handle.userErrorsResponse"}}
                }
            }
        },
        "/api/audios": {
            "get": {
                "produces": ["application/json"],
                "tags": ["音频"],
                "summary": "音频列表",
                "responses": {
                    "200": {"description": "当前用户的音频", "schema": {"$ref": "#/definitions/handle.audioListResponse"}},
                    "403": {"description": "未登录", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["音频"],
                "summary": "上传音频",
                "description": "保存文件、按内容哈希写入存储并建立记录，时长由后台任务回填",
                "parameters": [
                    {
                        "type": "file",
                        "description": "音频文件",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {"description": "ok 与新记录", "schema": {"$ref": "#/definitions/handle.audioResponse"}},
                    "403": {"description": "未登录", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "422": {"description": "校验失败", "schema": {"$ref": "#/definitions/handle.audioErrorsResponse"}},
                    "500": {"description": "服务器内部错误", "schema": {"$ref": "#/definitions/handle.okResponse"}}
                }
            }
        },
        "/api/audios/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["音频"],
                "summary": "修改音频",
                "parameters": [
                    {"type": "integer", "description": "音频 ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "需要修改的字段",
                        "name": "audio",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/audio.UpdateInput"}
                    }
                ],
                "responses": {
                    "202": {"description": "ok 与修改后的记录", "schema": {"$ref": "#/definitions/handle.audioResponse"}},
                    "404": {"description": "记录不存在", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "422": {"description": "校验失败", "schema": {"$ref": "#/definitions/handle.audioErrorsResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["音频"],
                "summary": "删除音频",
                "parameters": [
                    {"type": "integer", "description": "音频 ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "ok", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "404": {"description": "记录不存在", "schema": {"$ref": "#/definitions/handle.okResponse"}},
                    "422": {"description": "NOT_OWNER", "schema": {"$ref": "#/definitions/handle.audioErrorsResponse"}}
                }
            }
        },
        "/api/v1/health/db": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "数据库健康检查",
                "responses": {
                    "200": {"description": "ok", "schema": {"$ref": "#/definitions/handle.healthResponse"}},
                    "503": {"description": "unhealthy", "schema": {"$ref": "#/definitions/handle.healthResponse"}}
                }
            }
        },
        "/api/v1/health/storage": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "音频存储健康检查",
                "responses": {
                    "200": {"description": "ok", "schema": {"$ref": "#/definitions/handle.healthResponse"}},
                    "503": {"description": "unhealthy", "schema": {"$ref": "#/definitions/handle.healthResponse"}}
                }
            }
        },
        "/api/v1/health/mq": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "消息队列健康检查",
                "responses": {
                    "200": {"description": "ok", "schema": {"$ref": "#/definitions/handle.healthResponse"}},
                    "503": {"description": "unhealthy", "schema": {"$ref": "#/definitions/handle.healthResponse"}}
                }
            }
        },
        "/api/v1/scheduler/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["定时任务"],
                "summary": "定时任务列表",
                "responses": {
                    "200": {"description": "jobs", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/scheduler/jobs/{name}/run": {
            "post": {
                "produces": ["application/json"],
                "tags": ["定时任务"],
                "summary": "立即执行任务",
                "parameters": [
                    {"type": "string", "description": "任务名称", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "job triggered", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "任务不存在", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "调度器未启动", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "audio.Error": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "enum": ["NO_FILE", "FILE_TOO_LARGE", "BAD_MIMETYPE", "URL_NOT_UNIQUE", "INVALID_URL", "NOT_OWNER"]
                },
                "maxSize": {"type": "integer"},
                "allowedMimetypes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "audio.UpdateInput": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "visible": {"type": "boolean"},
                "originalName": {"type": "string"}
            }
        },
        "handle.loginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handle.okResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"}
            }
        },
        "handle.userResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "user": {"$ref": "#/definitions/model.User"}
            }
        },
        "handle.userErrorsResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/users.FieldError"}}
            }
        },
        "handle.audioResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "audio": {"$ref": "#/definitions/model.Audio"}
            }
        },
        "handle.audioListResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/model.Audio"}}
            }
        },
        "handle.audioErrorsResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/audio.Error"}}
            }
        },
        "handle.healthResponse": {
            "type": "object",
            "properties": {
                "component": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "model.Audio": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "hash": {"type": "string"},
                "originalName": {"type": "string"},
                "url": {"type": "string"},
                "mimetype": {"type": "string"},
                "size": {"type": "integer"},
                "visible": {"type": "boolean"},
                "duration": {"type": "number", "x-nullable": true},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "users.CreateInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "password2": {"type": "string"}
            }
        },
        "users.FieldError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"}
            }
        },
        "users.UpdateInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "password2": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SoundVault API",
	Description:      "SoundVault 是一个个人音频托管服务，提供用户注册、登录、音频上传管理与按用户子域名的音频流访问.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
