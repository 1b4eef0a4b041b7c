package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardscout/service-benefit/internal/application"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/places"
	"github.com/cardscout/service-benefit/internal/platform/auth"
	"github.com/cardscout/service-benefit/internal/platform/middleware"
	"github.com/cardscout/service-benefit/internal/platform/response"
)

// MatchStoresRequest carries candidate stores already resolved by the caller.
type MatchStoresRequest struct {
	Stores  []places.Place `json:"stores" binding:"required"`
	Channel string         `json:"channel"`
}

// MatchingHandler handles the interactive matching queries.
type MatchingHandler struct {
	service *application.MatchingService
}

// NewMatchingHandler creates a new MatchingHandler.
func NewMatchingHandler(service *application.MatchingService) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// RegisterRoutes registers all matching routes.
func (h *MatchingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/benefits/match", authMW, h.MatchStore)
	r.POST("/stores/match", authMW, h.MatchStores)
}

// MatchStore handles GET /api/v1/benefits/match?store=...
func (h *MatchingHandler) MatchStore(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	store := c.Query("store")
	if store == "" {
		response.BadRequest(c, "store query parameter is required")
		return
	}

	result, err := h.service.CardsUsableAtStore(c.Request.Context(), userID, store)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MatchStores handles POST /api/v1/stores/match.
func (h *MatchingHandler) MatchStores(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req MatchStoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	channel := catalog.Channel(req.Channel)
	switch channel {
	case "", catalog.ChannelOnline, catalog.ChannelOffline, catalog.ChannelBoth:
	default:
		response.BadRequest(c, "invalid channel")
		return
	}

	result, err := h.service.StoresWithUsableCards(c.Request.Context(), userID, req.Stores, channel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
