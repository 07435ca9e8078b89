package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	appcart "github.com/localmarket/backend/internal/application/cart"
)

// GuestCartHandler exposes the unauthenticated staged-cart API. Every route
// is keyed by the X-Device-ID header.
type GuestCartHandler struct {
	BaseHandler
	guest *appcart.GuestCartService
}

// NewGuestCartHandler creates a new GuestCartHandler
func NewGuestCartHandler(guest *appcart.GuestCartService) *GuestCartHandler {
	return &GuestCartHandler{guest: guest}
}

// RegisterRoutes registers the guest cart routes on a public group
func (h *GuestCartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	guest := rg.Group("/guest-cart")
	{
		guest.GET("", h.GetCart)
		guest.DELETE("", h.ClearCart)
		guest.POST("/items", h.AddItem)
		guest.PATCH("/items/:index", h.UpdateItem)
		guest.DELETE("/items/:index", h.RemoveItem)
		guest.GET("/by-business", h.ItemsByBusiness)
	}
}

func (h *GuestCartHandler) deviceID(c *gin.Context) (string, bool) {
	deviceID := c.GetHeader("X-Device-ID")
	if deviceID == "" {
		h.BadRequest(c, "X-Device-ID header is required")
		return "", false
	}
	return deviceID, true
}

func (h *GuestCartHandler) itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.BadRequest(c, "Item index must be an integer")
		return 0, false
	}
	return index, true
}

// GetCart returns the device's staged cart, empty when nothing is staged
func (h *GuestCartHandler) GetCart(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	staged, err := h.guest.GetCart(c.Request.Context(), deviceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, staged)
}

// AddItem stages an item for the device
func (h *GuestCartHandler) AddItem(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var item appcart.GuestItem
	if err := c.ShouldBindJSON(&item); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	staged, err := h.guest.AddItem(c.Request.Context(), deviceID, item)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, staged)
}

// UpdateItem patches a staged line by position
func (h *GuestCartHandler) UpdateItem(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}
	index, ok := h.itemIndex(c)
	if !ok {
		return
	}

	var req appcart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	staged, err := h.guest.UpdateItem(c.Request.Context(), deviceID, index, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, staged)
}

// RemoveItem drops a staged line by position
func (h *GuestCartHandler) RemoveItem(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}
	index, ok := h.itemIndex(c)
	if !ok {
		return
	}

	staged, err := h.guest.RemoveItem(c.Request.Context(), deviceID, index)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, staged)
}

// ClearCart discards the device's staged cart
func (h *GuestCartHandler) ClearCart(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	if err := h.guest.Clear(c.Request.Context(), deviceID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ItemsByBusiness groups the staged items by tagged business
func (h *GuestCartHandler) ItemsByBusiness(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	groups, err := h.guest.ItemsByBusiness(c.Request.Context(), deviceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}
