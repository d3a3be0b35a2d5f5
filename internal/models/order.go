package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a single line of an order. It belongs to exactly one Order.
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"orderId" gorm:"index;not null"`
	ProductSlug string          `json:"productSlug" gorm:"type:varchar(255);not null"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"` // unit price as submitted
	Qty         int             `json:"qty" gorm:"not null"`
}

// Order represents a placed order. UserID is nil for guest checkouts.
type Order struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    *uint           `json:"userId" gorm:"index"`
	User      *User           `json:"user,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Address   string          `json:"address" gorm:"type:text;not null"`
	Phone     string          `json:"phone" gorm:"type:varchar(64);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"` // client supplied
	Items     []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ItemsTotal is Σ price × qty over the order lines.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(LineTotal(item.Price, item.Qty))
	}
	return sum
}

// CustomerName is the user's name, or "Invité" for guest orders.
func (o *Order) CustomerName() string {
	if o.User != nil && o.User.Name != "" {
		return o.User.Name
	}
	return "Invité"
}

// Receipt is the acknowledgment returned for a recorded order or contact message.
type Receipt struct {
	ID         uint   `json:"id"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// OrderPlacedEvent is published on the order events queue.
type OrderPlacedEvent struct {
	OrderID  uint            `json:"orderId"`
	UserID   *uint           `json:"userId"`
	Total    decimal.Decimal `json:"total"`
	Items    int             `json:"items"`
	PlacedAt time.Time       `json:"placedAt"`
}
