package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Routes groups every handler served by the API.
type Routes struct {
	Health      *Handler
	Loans       *LoanHandler
	Investments *InvestmentHandler
	Payments    *PaymentHandler
	Scores      *ScoreHandler
	Profiles    *RiskProfileHandler
	Metrics     http.Handler
}

// Register mounts the routes on e. mutating wraps every state-changing route.
func (r Routes) Register(e *echo.Echo, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	e.POST("/loans", r.Loans.CreateLoan, mutating...)
	e.GET("/loans/fundable", r.Loans.ListFundable)
	e.GET("/loans/:loan_id", r.Loans.GetLoan)
	e.GET("/loans/:loan_id/installments", r.Loans.Schedule)

	e.POST("/loans/:loan_id/investments", r.Investments.Invest, mutating...)
	e.GET("/loans/:loan_id/investments", r.Investments.ListByLoan)
	e.GET("/investments/:investment_id", r.Investments.GetInvestment)

	e.POST("/loans/:loan_id/installments/:sequence/payments", r.Payments.RecordPayment, mutating...)

	e.POST("/scores", r.Scores.Score)

	e.GET("/risk-profiles/questionnaire", r.Profiles.Questionnaire)
	e.POST("/risk-profiles", r.Profiles.Assess, mutating...)
	e.POST("/risk-profiles/limit", r.Profiles.Limit)
	e.GET("/risk-profiles/:investor_id", r.Profiles.Get)
}
