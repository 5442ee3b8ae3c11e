package order

import (
	"context"
	"strings"

	"github.com/fjod/bakehouse/internal/domain"
)

// InquiryRequest is a custom-cake request. Name and Email are only used
// for guests; signed-in customers are identified by their account.
type InquiryRequest struct {
	Size           string
	Notes          string
	Date           string
	ReferenceImage string
	Name           string
	Email          string
}

// inquiryTimeTBD is stored as the scheduled time until the bakery agrees
// on a slot with the customer.
const inquiryTimeTBD = "TBD"

// SubmitInquiry records a custom-cake request as a pending, unpriced order.
// Inventory is not touched.
func (s *Service) SubmitInquiry(ctx context.Context, who domain.Identity, req InquiryRequest) (domain.Order, error) {
	req.Size = strings.TrimSpace(req.Size)
	req.Date = strings.TrimSpace(req.Date)
	if req.Size == "" {
		return domain.Order{}, domain.Invalid("size", "is required")
	}
	if req.Date == "" {
		return domain.Order{}, domain.Invalid("date", "is required")
	}

	userID, name, email := who.UserID, who.Name, who.Email
	if who.IsGuest() {
		userID = domain.GuestUserID
		name, email = strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
		if name == "" {
			return domain.Order{}, domain.Invalid("name", "is required")
		}
		if email == "" {
			return domain.Order{}, domain.Invalid("email", "is required")
		}
	} else if n := strings.TrimSpace(req.Name); n != "" {
		name = n
	}

	o := domain.Order{
		UserID:          userID,
		CustomerName:    name,
		CustomerEmail:   email,
		Items:           []domain.CartLineItem{},
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentCOD,
		DeliveryMethod:  domain.DeliveryPickup,
		ScheduledDate:   req.Date,
		ScheduledTime:   inquiryTimeTBD,
		CreatedAt:       s.now(),
		IsCustomInquiry: true,
		CustomDetails: &domain.CustomDetails{
			Size:           req.Size,
			Notes:          strings.TrimSpace(req.Notes),
			ReferenceImage: req.ReferenceImage,
		},
	}

	o, err := s.insert(ctx, o, domain.InquiryIDPrefix)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger.Info("custom inquiry submitted", "order_id", o.ID, "user_id", o.UserID, "size", req.Size)
	return o, nil
}
