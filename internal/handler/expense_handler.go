package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardscout/service-benefit/internal/application"
	"github.com/cardscout/service-benefit/internal/platform/auth"
	"github.com/cardscout/service-benefit/internal/platform/middleware"
	"github.com/cardscout/service-benefit/internal/platform/response"
)

// PostExpenseRequest is the body of a synchronous expense posting.
type PostExpenseRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Place    string `json:"place" binding:"required"`
	PostedAt string `json:"posted_at"`
}

// ExpenseHandler exposes synchronous expense posting; the normal path is the
// Kafka consumer, this endpoint serves tooling and manual entry.
type ExpenseHandler struct {
	calculator *application.CalculatorService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(calculator *application.CalculatorService) *ExpenseHandler {
	return &ExpenseHandler{calculator: calculator}
}

// RegisterRoutes registers the expense routes.
func (h *ExpenseHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/expenses", middleware.AuthMiddleware(jwtManager), h.PostExpense)
}

// PostExpense handles POST /api/v1/expenses.
func (h *ExpenseHandler) PostExpense(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PostExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	postedAt := time.Now().UTC()
	if req.PostedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PostedAt)
		if err != nil {
			response.BadRequest(c, "invalid posted_at format (use RFC3339)")
			return
		}
		postedAt = t
	}

	err := h.calculator.ProcessExpense(c.Request.Context(), application.Expense{
		UserID:   userID,
		Amount:   req.Amount,
		Place:    req.Place,
		PostedAt: postedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
