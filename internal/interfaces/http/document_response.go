package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// sendFile responde con un adjunto descargable.
func sendFile(c *fiber.Ctx, contentType, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(body)
}
