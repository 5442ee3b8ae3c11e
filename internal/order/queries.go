package order

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

// customCakesLabel groups every inquiry in the sales breakdown.
const customCakesLabel = "Custom Cakes"

// Filter narrows Orders. Zero values match everything.
type Filter struct {
	UserID        string
	Status        domain.OrderStatus
	InquiriesOnly bool
	OrdersOnly    bool
}

func (f Filter) match(o domain.Order) bool {
	switch {
	case f.UserID != "" && o.UserID != f.UserID:
		return false
	case f.Status != "" && o.Status != f.Status:
		return false
	case f.InquiriesOnly && !o.IsCustomInquiry:
		return false
	case f.OrdersOnly && o.IsCustomInquiry:
		return false
	}
	return true
}

// Orders lists matching orders, newest first.
func (s *Service) Orders(ctx context.Context, f Filter) ([]domain.Order, error) {
	all, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if f.match(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Service) Order(ctx context.Context, id string) (*domain.Order, error) {
	all, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	for _, o := range all {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, provider.ErrOrderNotFound
}

type ProductSales struct {
	Name  string `json:"name"`
	Units int    `json:"units"`
}

// Summary is the admin dashboard overview.
type Summary struct {
	Orders            int            `json:"orders"`
	Inquiries         int            `json:"inquiries"`
	Pending           int            `json:"pending"`
	Completed         int            `json:"completed"`
	Revenue           int64          `json:"revenue"`
	AverageOrderValue int64          `json:"average_order_value"`
	NeedsQuote        int            `json:"needs_quote"`
	LowStock          int            `json:"low_stock"`
	Sales             []ProductSales `json:"sales"`
}

// Summary aggregates every order. Revenue, average and sales ignore
// cancelled orders.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.store.GetOrders(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load orders: %w", err)
	}
	low, err := s.inventory.LowStock(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{LowStock: len(low)}
	units := map[string]int{}
	valid := 0
	for _, o := range all {
		if o.IsCustomInquiry {
			sum.Inquiries++
		} else {
			sum.Orders++
		}
		switch o.Status {
		case domain.OrderStatusPending:
			sum.Pending++
		case domain.OrderStatusCompleted:
			sum.Completed++
		}
		if o.NeedsQuote() {
			sum.NeedsQuote++
		}
		if o.Status == domain.OrderStatusCancelled {
			continue
		}

		valid++
		sum.Revenue += o.TotalAmount
		if o.IsCustomInquiry {
			units[customCakesLabel]++
			continue
		}
		for _, it := range o.Items {
			units[it.Name] += it.Quantity
		}
	}
	if valid > 0 {
		sum.AverageOrderValue = sum.Revenue / int64(valid)
	}

	sum.Sales = make([]ProductSales, 0, len(units))
	for name, n := range units {
		sum.Sales = append(sum.Sales, ProductSales{Name: name, Units: n})
	}
	slices.SortFunc(sum.Sales, func(a, b ProductSales) int {
		if c := cmp.Compare(b.Units, a.Units); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return sum, nil
}
