package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultSwaggerDoc is resolved relative to the working directory.
const DefaultSwaggerDoc = "docs/swagger.json"

// SetupSwagger serves the OpenAPI document at /swagger/doc.json and the UI
// under /swagger/.
func SetupSwagger(router *gin.Engine, docPath string) {
	serveDoc := func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.File(docPath)
	}

	router.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "doc.json" {
			serveDoc(c)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerUIHTML))
	})
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>FIRA Hidden Cost Calculator - API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      tryItOutEnabled: true,
      presets: [SwaggerUIBundle.presets.apis]
    });
  </script>
</body>
</html>`
