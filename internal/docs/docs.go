// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
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
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "Tokens and user"}, "401": {"description": "Invalid credentials"}, "423": {"description": "Account locked"}}}
        },
        "/auth/refresh": {
            "post": {"tags": ["auth"], "summary": "Rotate tokens", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "New tokens"}, "401": {"description": "Invalid refresh token"}}}
        },
        "/auth/logout": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "Logged out"}}}
        },
        "/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get user profile", "responses": {"200": {"description": "User profile"}}}
        },
        "/profile/password": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Change password", "responses": {"200": {"description": "Password changed"}}}
        },
        "/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Dashboard", "responses": {"200": {"description": "Dashboard"}}}
        },
        "/reports/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Transaction report", "produces": ["text/csv", "application/json"],
                "responses": {"200": {"description": "Report"}, "400": {"description": "Invalid input"}}}
        },
        "/attachments/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["attachments"], "summary": "Download a lampiran",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Attachment file"}, "404": {"description": "Attachment not found"}}}
        },
        "/branches": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["branches"], "summary": "List branches", "responses": {"200": {"description": "Paginated branches"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["branches"], "summary": "Create a branch", "responses": {"201": {"description": "Branch created"}}}
        },
        "/branches/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["branches"], "summary": "Get a branch", "responses": {"200": {"description": "Branch"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["branches"], "summary": "Update a branch", "responses": {"200": {"description": "Branch updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["branches"], "summary": "Delete a branch", "responses": {"200": {"description": "Branch deleted"}, "409": {"description": "Branch has units"}}}
        },
        "/units": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["units"], "summary": "List units", "responses": {"200": {"description": "Paginated units"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["units"], "summary": "Create a unit", "responses": {"201": {"description": "Unit created"}}}
        },
        "/units/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["units"], "summary": "Get a unit", "responses": {"200": {"description": "Unit"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["units"], "summary": "Update a unit", "responses": {"200": {"description": "Unit updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["units"], "summary": "Delete a unit", "responses": {"200": {"description": "Unit deleted"}}}
        },
        "/accounts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "List Akun AAS", "responses": {"200": {"description": "Paginated accounts"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Create an Akun AAS", "responses": {"201": {"description": "Account created"}}}
        },
        "/accounts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Get an Akun AAS", "responses": {"200": {"description": "Account"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Update an Akun AAS", "responses": {"200": {"description": "Account updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Delete an Akun AAS", "responses": {"200": {"description": "Account deleted"}}}
        },
        "/budget-items": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budget-items"], "summary": "List mata anggaran", "responses": {"200": {"description": "Paginated budget items"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["budget-items"], "summary": "Create a mata anggaran", "responses": {"201": {"description": "Budget item created"}}}
        },
        "/budget-items/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budget-items"], "summary": "Get a mata anggaran", "responses": {"200": {"description": "Budget item"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["budget-items"], "summary": "Update a mata anggaran", "responses": {"200": {"description": "Budget item updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["budget-items"], "summary": "Delete a mata anggaran", "responses": {"200": {"description": "Budget item deleted"}}}
        },
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "Paginated users"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create a user", "responses": {"201": {"description": "User created"}}}
        },
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user", "responses": {"200": {"description": "User"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update a user", "responses": {"200": {"description": "User updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete a user", "responses": {"200": {"description": "User deleted"}}}
        },
        "/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "List transactions", "responses": {"200": {"description": "Paginated transactions"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Record a transaction", "consumes": ["application/json", "multipart/form-data"], "responses": {"201": {"description": "Transaction created"}}}
        },
        "/transactions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Get a transaction", "responses": {"200": {"description": "Transaction"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Update a transaction", "responses": {"200": {"description": "Transaction updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Delete a transaction", "responses": {"200": {"description": "Transaction deleted"}}}
        },
        "/drafts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "List drafts", "responses": {"200": {"description": "Paginated drafts"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Create a draft", "consumes": ["application/json", "multipart/form-data"], "responses": {"201": {"description": "Draft created"}}}
        },
        "/drafts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Get a draft", "responses": {"200": {"description": "Draft"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Update a draft", "responses": {"200": {"description": "Draft updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Delete a draft", "responses": {"200": {"description": "Draft deleted"}}}
        },
        "/drafts/{id}/submit": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Submit a draft", "responses": {"200": {"description": "Draft submitted"}}}
        },
        "/drafts/{id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Approve a draft", "responses": {"200": {"description": "Draft approved"}}}
        },
        "/drafts/{id}/reject": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Reject a draft", "responses": {"200": {"description": "Draft rejected"}}}
        },
        "/drafts/{id}/cairkan": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["drafts"], "summary": "Disburse a top-up", "responses": {"200": {"description": "Draft disbursed"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kas Kecil API",
	Description:      "Petty-cash (kas kecil) administration for branches and units: master data, transactions with lampiran, the draft approval workflow and reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
