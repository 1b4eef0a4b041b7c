package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardscout/service-benefit/internal/application"
	"github.com/cardscout/service-benefit/internal/platform/auth"
	"github.com/cardscout/service-benefit/internal/platform/middleware"
	"github.com/cardscout/service-benefit/internal/platform/response"
)

// PromotionHandler handles promotion queries.
type PromotionHandler struct {
	service *application.PromotionService
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(service *application.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes registers the promotion routes.
func (h *PromotionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/promotions/active", middleware.AuthMiddleware(jwtManager), h.Active)
}

// Active handles GET /api/v1/promotions/active.
func (h *PromotionHandler) Active(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ActivePromotions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
