package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/riskprofile"
)

type RiskProfileHandler struct{ uc *riskprofile.Usecase }

func NewRiskProfileHandler(uc *riskprofile.Usecase) *RiskProfileHandler {
	return &RiskProfileHandler{uc: uc}
}

type assessReq struct {
	InvestorID    string            `json:"investor_id" validate:"required,max=64"`
	Answers       map[string]string `json:"answers" validate:"required,min=1"`
	MonthlyIncome decimal.Decimal   `json:"monthly_income" validate:"gte=0"`
	NetWorth      decimal.Decimal   `json:"net_worth" validate:"gte=0"`
}

type limitReq struct {
	Profile       string          `json:"profile" validate:"required,oneof=conservative moderate aggressive"`
	MonthlyIncome decimal.Decimal `json:"monthly_income" validate:"gte=0"`
	NetWorth      decimal.Decimal `json:"net_worth" validate:"gte=0"`
}

type limitResp struct {
	Profile         string          `json:"profile"`
	InvestmentLimit decimal.Decimal `json:"investment_limit"`
}

func (h *RiskProfileHandler) Questionnaire(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Questionnaire())
}

func (h *RiskProfileHandler) Assess(c echo.Context) error {
	var req assessReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Assess(c.Request().Context(), riskprofile.AssessInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RiskProfileHandler) Limit(c echo.Context) error {
	var req limitReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	limit, err := h.uc.Limit(c.Request().Context(), riskprofile.LimitInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, limitResp{Profile: req.Profile, InvestmentLimit: limit})
}

func (h *RiskProfileHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("investor_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
