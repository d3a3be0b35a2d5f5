package models

import "github.com/shopspring/decimal"

// Subcategory groups products inside a category.
type Subcategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Category is a top-level catalogue section.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Product is a catalogue entry. The catalogue is a static document, not a table.
type Product struct {
	Slug            string           `json:"slug"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice,omitempty"`
	Image           string           `json:"image,omitempty"`
	Rating          float64          `json:"rating,omitempty"`
	IsHot           bool             `json:"isHot,omitempty"`
	CategoryID      string           `json:"categoryId"`
	SubcategorySlug string           `json:"subcategorySlug,omitempty"`
}

// OnPromotion reports whether the product is sold below its original price.
func (p Product) OnPromotion() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// DiscountPercent is the promotion depth, 0 when not on promotion.
func (p Product) DiscountPercent() decimal.Decimal {
	if !p.OnPromotion() || !p.OriginalPrice.IsPositive() {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
}

// Catalogue is the whole storefront document.
type Catalogue struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}
