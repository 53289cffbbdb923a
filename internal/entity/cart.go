package entity

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CartLine is a cart entry priced against the live catalog.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available bool            `json:"available"`
}

// Cart is a user's shopping cart.
type Cart struct {
	UserID   string          `json:"user_id"`
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// NewCart prices the stored quantities against the given products. Entries whose
// product is gone are kept but marked unavailable and excluded from the subtotal.
func NewCart(userID string, quantities map[string]int, products map[string]Product) *Cart {
	c := &Cart{UserID: userID, Lines: make([]CartLine, 0, len(quantities)), Subtotal: decimal.Zero}

	for productID, qty := range quantities {
		if qty <= 0 {
			continue
		}
		line := CartLine{ProductID: productID, Quantity: qty, Price: decimal.Zero, LineTotal: decimal.Zero}
		if p, ok := products[productID]; ok {
			line.Name = p.Name
			line.ImageURL = p.ImageURL
			line.Price = p.Price
			line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(qty)))
			line.Available = p.IsActive && p.Stock >= qty
		}
		if line.Available {
			c.Subtotal = c.Subtotal.Add(line.LineTotal)
		}
		c.Lines = append(c.Lines, line)
	}

	sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].ProductID < c.Lines[j].ProductID })
	return c
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
