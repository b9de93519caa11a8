package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

type LeaderboardHandler struct {
	*BaseHandler
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(base *BaseHandler, leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler:        base,
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) RegisterRoutes(groups RouteGroups) {
	groups.Public.GET("/leaderboard-public", h.Leaderboard)

	groups.Protected.GET("/leaderboard", h.Leaderboard)
	groups.Protected.GET("/leaderboard/user/:userId", h.UserRanking)
}

func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	var query dto.LeaderboardQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.leaderboardService.Leaderboard(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *LeaderboardHandler) UserRanking(c *gin.Context) {
	userID, ok := h.ParseParamID(c, "userId")
	if !ok {
		return
	}

	ranking, err := h.leaderboardService.UserRanking(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking)
}
