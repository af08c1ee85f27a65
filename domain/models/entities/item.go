package entities

import (
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	OrderItemId  int64           `json:"order_item_id"`
	ProductId    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Qty          int             `json:"qty"`
	ProductPrice decimal.Decimal `json:"product_price"`
	CreatedAt    Timestamp       `json:"created_at"`
	Product      *Product        `json:"product"`
}

// ReturnPolicy returns the policy of the item's product, nil when the item
// carries no product or the product has no policy
func (item OrderItem) ReturnPolicy() *ReturnPolicy {
	if item.Product == nil {
		return nil
	}
	return item.Product.ReturnPolicy
}

type Product struct {
	Id           int64           `json:"id"`
	Name         string          `json:"name"`
	Sku          string          `json:"sku"`
	UrlKey       string          `json:"url_key"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	ReturnPolicy *ReturnPolicy   `json:"returnPolicy"`
}

// ReturnPolicy RequiredReasons is kept serialized, as the API sends it
type ReturnPolicy struct {
	DaysLimit       int     `json:"days_limit"`
	RequiredReasons *string `json:"required_reasons"`
	Description     string  `json:"description"`
}
