package api

import (
	"encoding/json"

	"serchadmin/internal/model"

	"github.com/gofiber/fiber/v2"
)

// success wraps data in the response envelope. Marshal failures on our own
// types are programming errors and surface as a plain failure envelope.
func success(c *fiber.Ctx, message string, data any) error {
	envelope := model.Envelope{IsSuccess: true, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return failure(c, "failed to encode response")
		}
		envelope.Data = raw
	}
	return c.JSON(envelope)
}

// failure reports a business failure. The HTTP status stays 200; clients
// branch on isSuccess, and the message is shown to the operator verbatim.
func failure(c *fiber.Ctx, message string) error {
	return c.JSON(model.Envelope{IsSuccess: false, Message: message})
}

// reject reports a transport-level failure (bad auth, malformed request) with
// a non-200 status and the same envelope shape.
func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(model.Envelope{IsSuccess: false, Message: message})
}
