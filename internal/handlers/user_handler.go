package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

// UserHandler - локация, поиск рядом и история очков
type UserHandler struct {
	*BaseHandler
	discoveryService services.DiscoveryService
	pointsService    services.PointsService
}

func NewUserHandler(base *BaseHandler, discoveryService services.DiscoveryService, pointsService services.PointsService) *UserHandler {
	return &UserHandler{
		BaseHandler:      base,
		discoveryService: discoveryService,
		pointsService:    pointsService,
	}
}

func (h *UserHandler) RegisterRoutes(groups RouteGroups) {
	location := groups.Protected.Group("/location")
	{
		location.POST("/update", h.UpdateLocation)
		location.GET("/nearby", h.NearbyUsers)
		location.GET("/nearby-jobs", h.NearbyJobs)
		location.GET("/nearby-sos", h.NearbySOS)
	}

	groups.Protected.GET("/points/history", h.PointsHistory)
}

func (h *UserHandler) UpdateLocation(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.discoveryService.UpdateLocation(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "Location updated",
		"current_latitude":    user.CurrentLatitude,
		"current_longitude":   user.CurrentLongitude,
		"current_address":     user.CurrentAddress,
		"location_updated_at": user.LocationUpdatedAt,
	})
}

func (h *UserHandler) NearbyUsers(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.NearbyQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	users, err := h.discoveryService.NearbyUsers(h.GetDB(c), userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *UserHandler) NearbyJobs(c *gin.Context) {
	var query dto.NearbyQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	jobs, err := h.discoveryService.NearbyJobs(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *UserHandler) NearbySOS(c *gin.Context) {
	var query dto.NearbyQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	sos, err := h.discoveryService.NearbySOS(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sos": sos, "count": len(sos)})
}

func (h *UserHandler) PointsHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	history, err := h.pointsService.History(h.GetDB(c), userID, ParsePage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
