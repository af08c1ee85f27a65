package http_server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/domain/wishlist"
)

type toggleResponse struct {
	Liked    bool              `json:"liked"`
	Wishlist wishlist.Snapshot `json:"wishlist"`
}

type wishlistHandler struct {
	baseHandler
	stores *wishlist.StoreRegistry
}

func (handler wishlistHandler) storeOf(c *gin.Context) *wishlist.Store {
	return handler.stores.Get(c.Request.Context(), Owner(c))
}

func bindItem(c *gin.Context) (entities.WishlistItem, bool) {
	var item entities.WishlistItem
	if !bindJSON(c, &item) {
		return item, false
	}
	if item.Id <= 0 {
		abortWithMessage(c, http.StatusBadRequest, "product id is required")
		return item, false
	}
	return item, true
}

// List handles GET /wishlist
func (handler wishlistHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, handler.storeOf(c).Snapshot())
}

// IsLiked handles GET /wishlist/:productId
func (handler wishlistHandler) IsLiked(c *gin.Context) {
	productId, ok := int64Param(c, "productId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": handler.storeOf(c).IsLiked(productId)})
}

// Add handles POST /wishlist
func (handler wishlistHandler) Add(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}
	store := handler.storeOf(c)
	store.Add(c.Request.Context(), item)
	c.JSON(http.StatusOK, store.Snapshot())
}

// Toggle handles POST /wishlist/toggle
func (handler wishlistHandler) Toggle(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}
	store := handler.storeOf(c)
	liked := store.ToggleLike(c.Request.Context(), item)
	c.JSON(http.StatusOK, toggleResponse{Liked: liked, Wishlist: store.Snapshot()})
}

// Remove handles DELETE /wishlist/:productId
func (handler wishlistHandler) Remove(c *gin.Context) {
	productId, ok := int64Param(c, "productId")
	if !ok {
		return
	}
	store := handler.storeOf(c)
	store.Remove(c.Request.Context(), productId)
	c.JSON(http.StatusOK, store.Snapshot())
}

// Clear handles DELETE /wishlist
func (handler wishlistHandler) Clear(c *gin.Context) {
	store := handler.storeOf(c)
	store.Clear(c.Request.Context())
	c.JSON(http.StatusOK, store.Snapshot())
}
