package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/tayloree/confere/internal/model"
)

// Response is the envelope of every API reply.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var errPremiumRequired = errors.New("premium required")

func success(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Response{Status: true, Message: message, Data: data})
}

func failure(c *fiber.Ctx, message string, err error) error {
	code := statusOf(err)
	if code == fiber.StatusInternalServerError {
		log.Errorw(message, "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(Response{Status: false, Message: message, Error: err.Error()})
}

func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrNoBudget):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrUnsupportedBackup):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, errPremiumRequired):
		return fiber.StatusPaymentRequired
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}
