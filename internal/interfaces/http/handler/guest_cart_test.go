package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newGuestEngine wires the guest handler against a real service on top of
// the in-memory store. Migration is not reachable through these routes, so
// the cart service and credential source stay nil.
func newGuestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	store := cache.NewInMemoryGuestCartStore(time.Hour)
	svc := appcart.NewGuestCartService(store, nil, nil, zap.NewNop(), 1, time.Millisecond)

	engine := gin.New()
	NewGuestCartHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func guestRequest(t *testing.T, engine *gin.Engine, method, path, deviceID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeGuestCart(t *testing.T, w *httptest.ResponseRecorder) appcart.GuestCart {
	t.Helper()
	var resp struct {
		Success bool              `json:"success"`
		Data    appcart.GuestCart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestGuestCartHandler_RequiresDeviceHeader(t *testing.T) {
	engine := newGuestEngine(t)

	for _, tt := range []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/guest-cart"},
		{"POST", "/api/v1/guest-cart/items"},
		{"PATCH", "/api/v1/guest-cart/items/0"},
		{"DELETE", "/api/v1/guest-cart/items/0"},
		{"DELETE", "/api/v1/guest-cart"},
		{"GET", "/api/v1/guest-cart/by-business"},
	} {
		w := guestRequest(t, engine, tt.method, tt.path, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestGuestCartHandler_GetEmptyCart(t *testing.T) {
	engine := newGuestEngine(t)

	w := guestRequest(t, engine, "GET", "/api/v1/guest-cart", "device-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	staged := decodeGuestCart(t, w)
	assert.Empty(t, staged.Items)
}

func TestGuestCartHandler_AddItemMergesLines(t *testing.T) {
	engine := newGuestEngine(t)
	item := appcart.GuestItem{
		ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
		Quantity:  2,
	}

	w := guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", item)
	require.Equal(t, http.StatusCreated, w.Code)

	w = guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", item)
	require.Equal(t, http.StatusCreated, w.Code)

	staged := decodeGuestCart(t, w)
	require.Len(t, staged.Items, 1)
	assert.Equal(t, 4, staged.Items[0].Quantity)
}

func TestGuestCartHandler_AddItemRejectsInvalidQuantity(t *testing.T) {
	engine := newGuestEngine(t)
	item := appcart.GuestItem{
		ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
		Quantity:  0,
	}

	w := guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", item)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestGuestCartHandler_UpdateItem(t *testing.T) {
	engine := newGuestEngine(t)
	item := appcart.GuestItem{
		ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
		Quantity:  2,
	}
	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", item).Code)

	t.Run("changes quantity by position", func(t *testing.T) {
		qty := 5
		w := guestRequest(t, engine, "PATCH", "/api/v1/guest-cart/items/0", "device-1",
			appcart.UpdateItemRequest{Quantity: &qty})

		require.Equal(t, http.StatusOK, w.Code)
		staged := decodeGuestCart(t, w)
		require.Len(t, staged.Items, 1)
		assert.Equal(t, 5, staged.Items[0].Quantity)
	})

	t.Run("rejects non-integer index", func(t *testing.T) {
		qty := 5
		w := guestRequest(t, engine, "PATCH", "/api/v1/guest-cart/items/first", "device-1",
			appcart.UpdateItemRequest{Quantity: &qty})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range index is not found", func(t *testing.T) {
		qty := 5
		w := guestRequest(t, engine, "PATCH", "/api/v1/guest-cart/items/7", "device-1",
			appcart.UpdateItemRequest{Quantity: &qty})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGuestCartHandler_RemoveItem(t *testing.T) {
	engine := newGuestEngine(t)
	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", appcart.GuestItem{
			ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
			Quantity:  1,
		}).Code)

	w := guestRequest(t, engine, "DELETE", "/api/v1/guest-cart/items/0", "device-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	staged := decodeGuestCart(t, w)
	assert.Empty(t, staged.Items)
}

func TestGuestCartHandler_ClearCart(t *testing.T) {
	engine := newGuestEngine(t)
	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", appcart.GuestItem{
			ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
			Quantity:  1,
		}).Code)

	w := guestRequest(t, engine, "DELETE", "/api/v1/guest-cart", "device-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = guestRequest(t, engine, "GET", "/api/v1/guest-cart", "device-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeGuestCart(t, w).Items)
}

func TestGuestCartHandler_ItemsByBusiness(t *testing.T) {
	engine := newGuestEngine(t)
	bizA := "4b1a6d0e-2f6c-4b5e-8a8f-9d0c1e2f3a4b"

	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", appcart.GuestItem{
			ProductID:  "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
			Quantity:   1,
			BusinessID: &bizA,
		}).Code)
	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", appcart.GuestItem{
			ProductID: "9c8b7a65-4321-4f0e-bc1d-2a3b4c5d6e7f",
			Quantity:  2,
		}).Code)

	w := guestRequest(t, engine, "GET", "/api/v1/guest-cart/by-business", "device-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                           `json:"success"`
		Data    map[string][]appcart.GuestItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.Len(t, resp.Data[bizA], 1)
	assert.Len(t, resp.Data[""], 1)
}

func TestGuestCartHandler_DevicesAreIsolated(t *testing.T) {
	engine := newGuestEngine(t)
	require.Equal(t, http.StatusCreated,
		guestRequest(t, engine, "POST", "/api/v1/guest-cart/items", "device-1", appcart.GuestItem{
			ProductID: "0b9f2c51-7d36-4f4e-9a2d-03f1b4a6c8de",
			Quantity:  1,
		}).Code)

	w := guestRequest(t, engine, "GET", "/api/v1/guest-cart", "device-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeGuestCart(t, w).Items)
}
