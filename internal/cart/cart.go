// Package cart is the customer's pre-checkout basket. Mutations are local
// and never fail on I/O; persistence of a cart is best-effort only.
package cart

import (
	"errors"
	"slices"

	"github.com/fjod/bakehouse/internal/domain"
)

var ErrOutOfStock = errors.New("product is out of stock")

// Cart is not safe for concurrent use; Registry serialises access.
type Cart struct {
	items []domain.CartLineItem
}

func New(items []domain.CartLineItem) *Cart {
	return &Cart{items: slices.Clone(items)}
}

// Add puts one more unit of p in the cart, never beyond p.Stock.
func (c *Cart) Add(p domain.Product) error {
	if !p.InStock() {
		return ErrOutOfStock
	}
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity = min(c.items[i].Quantity+1, p.Stock)
			return nil
		}
	}
	c.items = append(c.items, domain.CartLineItem{Product: p, Quantity: 1})
	return nil
}

// UpdateQuantity sets the line for p to q clamped to p.Stock; q <= 0
// removes the line.
func (c *Cart) UpdateQuantity(p domain.Product, q int) {
	if q <= 0 {
		c.Remove(p.ID)
		return
	}
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity = min(q, p.Stock)
			if c.items[i].Quantity <= 0 {
				c.Remove(p.ID)
			}
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	c.items = slices.DeleteFunc(c.items, func(it domain.CartLineItem) bool { return it.ID == productID })
}

func (c *Cart) Items() []domain.CartLineItem {
	return slices.Clone(c.items)
}

func (c *Cart) Total() int64 {
	return domain.SumItems(c.items)
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Clear() {
	c.items = nil
}
