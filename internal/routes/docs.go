package routes

import (
	_ "embed"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const docsPath = "/todolist/api-docs"

//go:embed openapi.yaml
var openAPISpec []byte

// swaggerPage loads Swagger UI from the public CDN and points it at the
// embedded document.
const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Todo List Management API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      SwaggerUIBundle({ url: "` + docsPath + `/openapi.yaml", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>`

// RegisterDocsRoutes serves the OpenAPI document and a Swagger UI page for it.
func RegisterDocsRoutes(app *fiber.App) {
	app.Get(docsPath, func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Status(http.StatusOK).SendString(swaggerPage)
	})
	app.Get(docsPath+"/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Status(http.StatusOK).Send(openAPISpec)
	})
}
