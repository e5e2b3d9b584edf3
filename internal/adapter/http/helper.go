package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"p2p-lending/internal/domain/errs"
)

// statusOf maps an error kind onto the HTTP status reported to clients.
func statusOf(err error) int {
	switch errs.Kind(err) {
	case errs.ErrValidation, errs.ErrArithmetic:
		return http.StatusUnprocessableEntity
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, err error) error {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindAndValidate decodes the body into req and runs struct validation.
// It writes the error response itself and reports whether the handler
// should continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return true, nil
}
