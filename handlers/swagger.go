package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the country cache API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>countrycache - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "countrycache", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Country": {
        "type": "object",
        "properties": {
          "id": {"type":"integer"}, "name": {"type":"string"}, "capital": {"type":"string"}, "region": {"type":"string"},
          "population": {"type":"number"}, "currency_code": {"type":"string"}, "exchange_rate": {"type":"number","nullable":true},
          "estimated_gdp": {"type":"number"}, "flag_url": {"type":"string"}, "last_refreshed_at": {"type":"string","format":"date-time"}
        }
      },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/countries/refresh": {
      "post": {
        "summary": "Fetch a country and its USD rate upstream and cache it",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["Country"],"properties":{"Country":{"type":"string"}}}}}},
        "responses": {
          "201": { "description": "cached; body has message, name, currency_code, updated, last_refreshed_at" },
          "400": { "description": "missing Country" },
          "404": { "description": "country or exchange rate not found" },
          "500": { "description": "rates api unreachable or store failure" },
          "503": { "description": "country directory unreachable" },
          "504": { "description": "upstream timed out" }
        }
      }
    },
    "/countries": {
      "get": {
        "summary": "List cached countries",
        "parameters": [
          {"name":"region","in":"query","schema":{"type":"string"}},
          {"name":"currency","in":"query","schema":{"type":"string"}},
          {"name":"sort","in":"query","schema":{"type":"string","enum":["gdp_desc","gdp_asc"]}}
        ],
        "responses": { "200": { "description": "countries" }, "404": { "description": "no countries match" } }
      }
    },
    "/countries/image": {
      "get": { "summary": "Summary chart of the top 5 countries by estimated GDP", "responses": { "200": { "description": "image/png" }, "404": { "description": "not generated yet" } } }
    },
    "/countries/{name}": {
      "get": { "summary": "Get a country (name matched ignoring case)", "parameters": [{"name":"name","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "country" }, "404": { "description": "not cached" } } },
      "delete": { "summary": "Delete a country (exact name)", "parameters": [{"name":"name","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "deleted" }, "404": { "description": "not cached" } } }
    },
    "/status": { "get": { "summary": "Cached count and last refresh time", "responses": { "200": { "description": "total_countries, last_refreshed_at" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
