package domain

type ProductCategory string

const (
	CategoryCakes    ProductCategory = "Cakes"
	CategoryCookies  ProductCategory = "Cookies"
	CategoryPastries ProductCategory = "Pastries"
)

func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryCakes, CategoryCookies, CategoryPastries:
		return true
	}
	return false
}

// Product is a catalog entry. Price is in the smallest display unit.
type Product struct {
	ID          string          `json:"id" bson:"id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description" bson:"description"`
	Price       int64           `json:"price" bson:"price"`
	Category    ProductCategory `json:"category" bson:"category"`
	Image       string          `json:"image,omitempty" bson:"image,omitempty"`
	Stock       int             `json:"stock" bson:"stock"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// CartLineItem is a product snapshot with a quantity.
type CartLineItem struct {
	Product  `bson:",inline"`
	Quantity int `json:"quantity" bson:"quantity"`
}

func (i CartLineItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}
