package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps err the way every endpoint reports failures.
func ErrorEnvelope(err error) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: err.Error()}
}

// SuccessEnvelope flattens payload's JSON fields next to "status":"success".
// payload must encode to a JSON object.
func SuccessEnvelope(payload interface{}) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	fields["status"] = json.RawMessage(`"` + StatusSuccess + `"`)
	return fields, nil
}

// RespondWithError sends an error envelope. Failures are reported in the body;
// the HTTP status stays 200.
func RespondWithError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusOK).JSON(ErrorEnvelope(err))
}

// RespondWithSuccess sends payload's fields with "status":"success".
func RespondWithSuccess(c *fiber.Ctx, payload interface{}) error {
	body, err := SuccessEnvelope(payload)
	if err != nil {
		return RespondWithError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var errs []string
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			errs = append(errs, err.Error())
		}
		return errs
	}
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		errs = append(errs, element)
	}
	return errs
}

// SanitizeInput trims whitespace from user supplied values.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
