package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/services"
	"gigsos_backend/internal/services/dto"
)

type AddressHandler struct {
	*BaseHandler
	addressService services.AddressService
}

func NewAddressHandler(base *BaseHandler, addressService services.AddressService) *AddressHandler {
	return &AddressHandler{
		BaseHandler:    base,
		addressService: addressService,
	}
}

func (h *AddressHandler) RegisterRoutes(groups RouteGroups) {
	addresses := groups.Protected.Group("/addresses")
	{
		addresses.GET("", h.List)
		addresses.POST("", h.Create)
		addresses.PUT("/:id", h.Update)
		addresses.DELETE("/:id", h.Delete)
		addresses.POST("/:id/set-default", h.SetDefault)
	}
}

func (h *AddressHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	addresses, err := h.addressService.ListAddresses(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *AddressHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateAddressRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	address, err := h.addressService.CreateAddress(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, address)
}

func (h *AddressHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	addressID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAddressRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	address, err := h.addressService.UpdateAddress(h.GetDB(c), userID, addressID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	addressID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	if err := h.addressService.DeleteAddress(h.GetDB(c), userID, addressID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}

func (h *AddressHandler) SetDefault(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	addressID, ok := h.ParseParamID(c, "id")
	if !ok {
		return
	}

	address, err := h.addressService.SetDefault(h.GetDB(c), userID, addressID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}
