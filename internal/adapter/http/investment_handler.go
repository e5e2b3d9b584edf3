package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/funding"
)

type InvestmentHandler struct{ uc *funding.Usecase }

func NewInvestmentHandler(uc *funding.Usecase) *InvestmentHandler {
	return &InvestmentHandler{uc: uc}
}

type investReq struct {
	InvestorID string          `json:"investor_id" validate:"required,max=64"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
}

func (h *InvestmentHandler) Invest(c echo.Context) error {
	var req investReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Invest(c.Request().Context(), funding.InvestInput{
		LoanID:     c.Param("loan_id"),
		InvestorID: req.InvestorID,
		Amount:     req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *InvestmentHandler) ListByLoan(c echo.Context) error {
	out, err := h.uc.ListByLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InvestmentHandler) GetInvestment(c echo.Context) error {
	dto, err := h.uc.GetInvestment(c.Request().Context(), c.Param("investment_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
