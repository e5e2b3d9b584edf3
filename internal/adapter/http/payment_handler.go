package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/usecase/payment"
)

type PaymentHandler struct{ uc *payment.Usecase }

func NewPaymentHandler(uc *payment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	seq, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || seq < 1 {
		return respondError(c, errs.Validation("sequence must be a positive integer, got %q", c.Param("sequence")))
	}
	dto, err := h.uc.RecordInstallmentPayment(c.Request().Context(), c.Param("loan_id"), seq)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
