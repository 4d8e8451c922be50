package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
)

// errorMapping código HTTP y código de error para cada error de dominio.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNumberConflict, fiber.StatusBadRequest, "NUMBER_CONFLICT"},
	{domain.ErrBillingPrecondition, fiber.StatusBadRequest, "BILLING_DATA_INCOMPLETE"},
	{domain.ErrMailNotConfigured, fiber.StatusBadRequest, "MAIL_NOT_CONFIGURED"},
	{domain.ErrMissingRecipient, fiber.StatusBadRequest, "MISSING_RECIPIENT"},
	{domain.ErrNoBillingAccount, fiber.StatusBadRequest, "NO_BILLING_ACCOUNT"},
	{domain.ErrInvalidSignature, fiber.StatusBadRequest, "INVALID_SIGNATURE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrUserInactive, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrSubscriptionReadOnly, fiber.StatusForbidden, "SUBSCRIPTION_REQUIRED"},
}

// writeError traduce un error de caso de uso a dto.ErrorResponse.
// Lo no reconocido es 500 INTERNAL con el mensaje original.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// parseOptionalBody como BodyParser pero acepta cuerpo vacío.
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}
