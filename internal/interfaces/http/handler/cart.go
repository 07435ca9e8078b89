package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/localmarket/backend/internal/application/cart"
)

// CartHandler exposes the authenticated cart API
type CartHandler struct {
	BaseHandler
	carts *appcart.CartService
	guest *appcart.GuestCartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *appcart.CartService, guest *appcart.GuestCartService) *CartHandler {
	return &CartHandler{carts: carts, guest: guest}
}

// RegisterRoutes registers the cart routes on an authenticated group
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:itemId", h.UpdateItem)
		cart.DELETE("/items/:itemId", h.RemoveItem)
		cart.POST("/migrate", h.Migrate)
	}
}

// GetCart returns the owner's cart. Data is null when no cart exists.
func (h *CartHandler) GetCart(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.carts.GetCart(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem adds a quantity of a product to the owner's cart
func (h *CartHandler) AddItem(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appcart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.carts.AddItem(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateItem patches a cart item's quantity and/or instructions
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Item ID must be a valid UUID")
		return
	}

	var req appcart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.carts.UpdateItem(c.Request.Context(), ownerID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem deletes a cart item. Data is null when the cart itself was
// removed along with its last item.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Item ID must be a valid UUID")
		return
	}

	resp, err := h.carts.RemoveItem(c.Request.Context(), ownerID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClearCart deletes the owner's cart and all its items
func (h *CartHandler) ClearCart(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.carts.ClearCart(c.Request.Context(), ownerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Migrate moves the device's staged guest cart into the owner's cart
func (h *CartHandler) Migrate(c *gin.Context) {
	deviceID := getDeviceID(c)
	if deviceID == "" {
		h.BadRequest(c, "Device ID is required for migration")
		return
	}

	result, err := h.guest.Migrate(c.Request.Context(), deviceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
