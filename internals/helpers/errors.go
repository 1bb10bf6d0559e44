package helper

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/apperr"
)

// ErrorStatus maps an error to its HTTP status and error_code. ok is false
// for errors that should be logged and hidden behind a 500.
func ErrorStatus(err error) (status int, code string, ok bool) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindNotFound:
			return fiber.StatusNotFound, string(ae.Kind), true
		case apperr.KindConflict:
			return fiber.StatusConflict, string(ae.Kind), true
		case apperr.KindInvalidState:
			return fiber.StatusBadRequest, string(ae.Kind), true
		case apperr.KindValidation:
			return fiber.StatusUnprocessableEntity, string(ae.Kind), true
		}
		return fiber.StatusInternalServerError, string(apperr.KindInternal), false
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, statusToErrorCode(fe.Code), true
	}
	return fiber.StatusInternalServerError, string(apperr.KindInternal), false
}

// FromError renders a service error. Domain kinds map to fixed statuses;
// *fiber.Error keeps its code; anything else is a logged 500.
func FromError(c *fiber.Ctx, err error) error {
	status, code, ok := ErrorStatus(err)
	if !ok {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return JsonError(c, fiber.StatusInternalServerError, "internal server error")
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindValidation && len(ae.Fields) > 0 {
			return JsonValidationError(c, ae.Fields)
		}
		return jsonErrorCode(c, status, code, ae.Message)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return jsonErrorCode(c, status, code, fe.Message)
	}
	return jsonErrorCode(c, status, code, err.Error())
}

// JsonErrorData renders err like FromError with an extra data payload.
func JsonErrorData(c *fiber.Ctx, err error, data any) error {
	status, code, ok := ErrorStatus(err)
	if !ok {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return JsonError(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.Status(status).JSON(fiber.Map{
		"success":    false,
		"message":    err.Error(),
		"error_code": code,
		"data":       data,
	})
}
