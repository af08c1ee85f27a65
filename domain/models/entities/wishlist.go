package entities

import "github.com/shopspring/decimal"

// WishlistItem is a display snapshot of a liked product
type WishlistItem struct {
	Id           int64            `json:"id"`
	Name         string           `json:"name"`
	Sku          string           `json:"sku,omitempty"`
	UrlKey       string           `json:"url_key"`
	Image        string           `json:"image"`
	Price        decimal.Decimal  `json:"price"`
	SpecialPrice *decimal.Decimal `json:"special_price,omitempty"`
}

func WishlistItemOf(product Product) WishlistItem {
	return WishlistItem{
		Id:     product.Id,
		Name:   product.Name,
		Sku:    product.Sku,
		UrlKey: product.UrlKey,
		Image:  product.Image,
		Price:  product.Price,
	}
}
