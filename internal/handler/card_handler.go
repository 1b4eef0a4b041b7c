package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cardscout/service-benefit/internal/application"
	"github.com/cardscout/service-benefit/internal/platform/auth"
	"github.com/cardscout/service-benefit/internal/platform/middleware"
	"github.com/cardscout/service-benefit/internal/platform/response"
)

// CardHandler handles HTTP requests for catalog browsing and registration.
type CardHandler struct {
	service *application.RegistrationService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(service *application.RegistrationService) *CardHandler {
	return &CardHandler{service: service}
}

// RegisterRoutes registers all card routes.
func (h *CardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	cards := r.Group("/cards")
	{
		cards.GET("", h.ListCatalog)
		cards.GET("/mine", authMW, h.ListMine)
		cards.POST("/:id/register", authMW, h.Register)
		cards.DELETE("/:id/register", authMW, h.Unregister)
	}
}

// ListCatalog handles GET /api/v1/cards.
func (h *CardHandler) ListCatalog(c *gin.Context) {
	result, err := h.service.ListCatalog(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListMine handles GET /api/v1/cards/mine.
func (h *CardHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListUserCards(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Register handles POST /api/v1/cards/:id/register.
func (h *CardHandler) Register(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid card id")
		return
	}

	result, err := h.service.RegisterCard(c.Request.Context(), userID, cardID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Unregister handles DELETE /api/v1/cards/:id/register.
func (h *CardHandler) Unregister(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid card id")
		return
	}

	if err := h.service.UnregisterCard(c.Request.Context(), userID, cardID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
