package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

type SOSHandler struct {
	*BaseHandler
	sosService services.SOSService
}

func NewSOSHandler(base *BaseHandler, sosService services.SOSService) *SOSHandler {
	return &SOSHandler{
		BaseHandler: base,
		sosService:  sosService,
	}
}

func (h *SOSHandler) RegisterRoutes(groups RouteGroups) {
	groups.Public.GET("/sos", h.List)

	sos := groups.Protected.Group("/sos")
	{
		sos.POST("", h.Create)
		sos.GET("/user/:userId", h.ListByUser)
		sos.GET("/:id", h.Get)
		sos.PUT("/:id", h.Update)
		sos.DELETE("/:id", h.Delete)
		sos.POST("/:id/respond", h.Respond)
	}
}

func (h *SOSHandler) List(c *gin.Context) {
	var query dto.SOSListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.sosService.ListSOS(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *SOSHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSOSRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sos, err := h.sosService.CreateSOS(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sos)
}

func (h *SOSHandler) Get(c *gin.Context) {
	sosID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	sos, err := h.sosService.GetSOS(h.GetDB(c), sosID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sos)
}

func (h *SOSHandler) ListByUser(c *gin.Context) {
	userID, ok := h.ParseParamID(c, "userId")
	if !ok {
		return
	}

	list, err := h.sosService.ListByUser(h.GetDB(c), userID, ParsePage(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *SOSHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	sosID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSOSRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.sosService.UpdateSOS(h.GetDB(c), userID, sosID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SOSHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	sosID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	if err := h.sosService.DeleteSOS(h.GetDB(c), userID, sosID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "SOS request deleted"})
}

func (h *SOSHandler) Respond(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	sosID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	var req dto.RespondSOSRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	helper, err := h.sosService.Respond(h.GetDB(c), userID, sosID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, helper)
}
