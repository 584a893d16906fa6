// Package docs registers the storefront OpenAPI document served under
// /swagger. Regenerate with `swag init -g cmd/server/main.go` after
// changing handler annotations.
package docs

import "github.com/swaggo/swag/v2"

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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/catalog/products": {
            "get": {"tags": ["catalog"], "summary": "List in-stock products", "parameters": [
                {"name": "page", "in": "query", "type": "integer"},
                {"name": "page_size", "in": "query", "type": "integer"},
                {"name": "q", "in": "query", "type": "string"},
                {"name": "brand_id", "in": "query", "type": "string", "format": "uuid"},
                {"name": "category_id", "in": "query", "type": "string", "format": "uuid"}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["catalog"], "summary": "Create a product", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/catalog/products/{id}": {
            "get": {"tags": ["catalog"], "summary": "Get a product", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["catalog"], "summary": "Update a product", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["catalog"], "summary": "Delete a product", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/catalog/brands": {
            "get": {"tags": ["catalog"], "summary": "List brands", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "summary": "Create a brand", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/catalog/brands/{id}": {
            "put": {"tags": ["catalog"], "summary": "Rename a brand", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Name taken"}}},
            "delete": {"tags": ["catalog"], "summary": "Delete a brand", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "409": {"description": "Brand in use"}}}
        },
        "/catalog/categories": {
            "get": {"tags": ["catalog"], "summary": "List categories", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "summary": "Create a category", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/catalog/categories/{id}": {
            "put": {"tags": ["catalog"], "summary": "Rename a category", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Name taken"}}},
            "delete": {"tags": ["catalog"], "summary": "Delete a category", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "409": {"description": "Category in use"}}}
        },
        "/cart": {
            "get": {"tags": ["cart"], "summary": "View the session cart", "responses": {"200": {"description": "OK"}, "422": {"description": "Empty cart"}}},
            "delete": {"tags": ["cart"], "summary": "Empty the session cart", "responses": {"204": {"description": "No Content"}}}
        },
        "/cart/items": {
            "post": {"tags": ["cart"], "summary": "Add a product to the cart", "responses": {"200": {"description": "Merged"}, "201": {"description": "Added"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/cart/items/{product_id}": {
            "put": {"tags": ["cart"], "summary": "Change a cart line", "parameters": [{"name": "product_id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["cart"], "summary": "Remove a cart line", "parameters": [{"name": "product_id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}}
        },
        "/orders/checkout": {
            "post": {"tags": ["orders"], "summary": "Settle the session cart into an order", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Empty cart or insufficient stock"}, "503": {"description": "Storage unavailable"}}}
        },
        "/orders": {
            "get": {"tags": ["orders"], "summary": "List the customer's orders", "security": [{"BearerAuth": []}], "parameters": [
                {"name": "page", "in": "query", "type": "integer"},
                {"name": "page_size", "in": "query", "type": "integer"},
                {"name": "status", "in": "query", "type": "string", "enum": ["pending", "paid"]}
            ], "responses": {"200": {"description": "OK"}}}
        },
        "/orders/{invoice}": {
            "get": {"tags": ["orders"], "summary": "Get an order by invoice", "security": [{"BearerAuth": []}], "parameters": [{"name": "invoice", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/orders/{invoice}/pay": {
            "post": {"tags": ["orders"], "summary": "Pay an order online", "security": [{"BearerAuth": []}], "parameters": [{"name": "invoice", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "402": {"description": "Payment failed"}, "409": {"description": "Already paid"}}}
        },
        "/orders/{invoice}/mark-paid": {
            "post": {"tags": ["orders"], "summary": "Record an offline payment (admin)", "security": [{"BearerAuth": []}], "parameters": [{"name": "invoice", "in": "path", "required": true, "type": "string"}, {"name": "request", "in": "body", "required": true, "schema": {"type": "object", "required": ["customer_id"], "properties": {"customer_id": {"type": "string", "format": "uuid"}}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "409": {"description": "Already paid"}}}
        },
        "/orders/{invoice}/invoice.pdf": {
            "get": {"tags": ["orders"], "summary": "Download the invoice PDF", "produces": ["application/pdf"], "security": [{"BearerAuth": []}], "parameters": [{"name": "invoice", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF"}, "302": {"description": "Archived copy"}, "404": {"description": "Not Found"}}}
        },
        "/payments/stripe/webhook": {
            "post": {"tags": ["payments"], "summary": "Stripe webhook", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"name": "Stripe-Signature", "in": "header", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid signature"}, "404": {"description": "Webhooks disabled"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog browsing, session carts and checkout for the storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
