// Package docs registers the OpenAPI description served at /swagger/doc.json.
// Regenerate the full description from the handler annotations with
// `swag init -g cmd/api/main.go -o docs`.
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
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Get current caller", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/products": {
            "get": {"tags": ["Products"], "summary": "List products", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Products"], "summary": "Create product", "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate product code"}}}
        },
        "/products/import": {"post": {"tags": ["Products"], "summary": "Bulk import products", "responses": {"200": {"description": "OK"}}}},
        "/products/{id}": {
            "get": {"tags": ["Products"], "summary": "Get product by ID", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["Products"], "summary": "Update product", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Products"], "summary": "Delete product", "responses": {"204": {"description": "No Content"}, "409": {"description": "Referenced"}}}
        },
        "/suppliers": {
            "get": {"tags": ["Suppliers"], "summary": "List suppliers", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Suppliers"], "summary": "Create supplier", "responses": {"201": {"description": "Created"}}}
        },
        "/suppliers/{id}": {
            "get": {"tags": ["Suppliers"], "summary": "Get supplier by ID", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Suppliers"], "summary": "Update supplier", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Suppliers"], "summary": "Delete supplier", "responses": {"204": {"description": "No Content"}, "409": {"description": "Referenced"}}}
        },
        "/gtips": {
            "get": {"tags": ["GTIP"], "summary": "List GTIP codes", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["GTIP"], "summary": "Create GTIP", "responses": {"201": {"description": "Created"}}}
        },
        "/gtips/{id}": {
            "get": {"tags": ["GTIP"], "summary": "Get GTIP by ID", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["GTIP"], "summary": "Update GTIP", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["GTIP"], "summary": "Delete GTIP", "responses": {"204": {"description": "No Content"}}}
        },
        "/gtips/{id}/costs": {"get": {"tags": ["GTIP"], "summary": "Preview landed cost", "responses": {"200": {"description": "OK"}}}},
        "/gtips/{id}/country-rates": {"put": {"tags": ["GTIP"], "summary": "Set country rates", "responses": {"200": {"description": "OK"}}}},
        "/gtips/{id}/country-rates/{country}": {"delete": {"tags": ["GTIP"], "summary": "Remove country rates", "responses": {"204": {"description": "No Content"}}}},
        "/rfqs": {
            "get": {"tags": ["RFQ"], "summary": "List RFQs", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["RFQ"], "summary": "Create RFQ", "responses": {"201": {"description": "Created"}}}
        },
        "/rfqs/{id}": {
            "get": {"tags": ["RFQ"], "summary": "Get RFQ with items, suppliers and quotes", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["RFQ"], "summary": "Delete RFQ", "responses": {"204": {"description": "No Content"}}}
        },
        "/rfqs/{id}/status": {"put": {"tags": ["RFQ"], "summary": "Change RFQ status", "responses": {"200": {"description": "OK"}}}},
        "/rfqs/{id}/import": {"post": {"tags": ["RFQ"], "summary": "Import supplier quotes", "responses": {"200": {"description": "Committed"}, "400": {"description": "Invalid rows or unknown suppliers"}, "422": {"description": "Needs confirmation or supplier choice"}}}},
        "/rfqs/{id}/comparison": {"get": {"tags": ["RFQ"], "summary": "Compare quotes", "responses": {"200": {"description": "OK"}}}},
        "/rfqs/{id}/convert": {"post": {"tags": ["RFQ"], "summary": "Convert RFQ to order", "responses": {"201": {"description": "Created"}, "400": {"description": "Currency mismatch or missing prices"}}}},
        "/rfq/export": {"get": {"tags": ["RFQ"], "summary": "Export comparison workbook", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}},
        "/orders": {
            "get": {"tags": ["Orders"], "summary": "List orders", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Orders"], "summary": "Create order", "responses": {"201": {"description": "Created"}}}
        },
        "/orders/{id}": {"get": {"tags": ["Orders"], "summary": "Get order with items", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/items": {"post": {"tags": ["Orders"], "summary": "Add order line", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/items/{itemId}": {
            "put": {"tags": ["Orders"], "summary": "Update order line", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Orders"], "summary": "Remove order line", "responses": {"200": {"description": "OK"}}}
        },
        "/shipments": {
            "get": {"tags": ["Shipments"], "summary": "List shipments", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Shipments"], "summary": "Create shipment", "responses": {"201": {"description": "Created"}}}
        },
        "/shipments/{id}": {"get": {"tags": ["Shipments"], "summary": "Get shipment with forwarder quotes", "responses": {"200": {"description": "OK"}}}},
        "/shipments/{id}/quotes": {"post": {"tags": ["Shipments"], "summary": "Add forwarder quote", "responses": {"200": {"description": "OK"}}}},
        "/shipments/{id}/quotes/{quoteId}/select": {"post": {"tags": ["Shipments"], "summary": "Select forwarder quote", "responses": {"200": {"description": "OK"}}}},
        "/packing-lists/parse": {"post": {"tags": ["Packing"], "summary": "Parse packing list", "consumes": ["multipart/form-data"], "responses": {"200": {"description": "OK"}}}},
        "/discrepancy-runs": {
            "get": {"tags": ["Packing"], "summary": "List discrepancy runs", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Packing"], "summary": "Run discrepancy check", "responses": {"201": {"description": "Created"}, "400": {"description": "overflow_product_codes"}}}
        },
        "/discrepancy-runs/{id}": {"get": {"tags": ["Packing"], "summary": "Get discrepancy run", "responses": {"200": {"description": "OK"}}}},
        "/mssql-name-sync": {"post": {"tags": ["Netsis"], "summary": "Fill product names from the ERP", "responses": {"200": {"description": "OK"}, "503": {"description": "ERP unavailable"}}}},
        "/netsis/figures": {"get": {"tags": ["Netsis"], "summary": "Stock and sales figures", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and the token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Import Back-Office API",
	Description:      "Catalog, RFQ, order, shipment and packing reconciliation API with Netsis ERP lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
