package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/scoring"
)

type ScoreHandler struct{ uc *scoring.Usecase }

func NewScoreHandler(uc *scoring.Usecase) *ScoreHandler { return &ScoreHandler{uc: uc} }

type transactionReq struct {
	Date        string          `json:"date" validate:"required"`
	Description string          `json:"description" validate:"max=512"`
	Amount      decimal.Decimal `json:"amount"`
}

type scoreReq struct {
	Transactions []transactionReq `json:"transactions" validate:"dive"`
}

func (h *ScoreHandler) Score(c echo.Context) error {
	var req scoreReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := make([]scoring.TransactionInput, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		in = append(in, scoring.TransactionInput(t))
	}
	dto, err := h.uc.Score(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
