package serverutils

import (
	"errors"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

func statusFor(code string) int {
	switch code {
	case apperror.CodeInvalidRequest:
		return fiber.StatusBadRequest
	case apperror.CodeStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

// WriteError writes err as an ErrorBody with a matching status.
func WriteError(ctx *fiber.Ctx, err error) error {
	if appErr, ok := apperror.As(err); ok {
		return ctx.Status(statusFor(appErr.Code)).JSON(ErrorBody{
			Success:   false,
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorBody{
			Success: false,
			Code:    "HTTP_ERROR",
			Message: fiberErr.Message,
		})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorBody{
		Success: false,
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	})
}
