package utils

import "github.com/gofiber/fiber/v2"

// ErrorDetail is the error envelope of the EduGen API: every failure is
// reported as {"detail": "..."} regardless of status code.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// SendDetail writes an error response in the detail envelope.
func SendDetail(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorDetail{Detail: message})
}
