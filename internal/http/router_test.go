package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/bakehouse/internal/cart"
	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/inventory"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/fjod/bakehouse/internal/order"
	"github.com/fjod/bakehouse/internal/profile"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/fjod/bakehouse/internal/provider/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type caller struct {
	id   string
	role string
}

var (
	guest = caller{}
	ana   = caller{id: "u1", role: "CUSTOMER"}
	ben   = caller{id: "u2", role: "CUSTOMER"}
	admin = caller{id: provider.AdminUserID, role: "ADMIN"}
)

type testAPI struct {
	router chi.Router
	ledger *inventory.Ledger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore(nil, discard)
	require.NoError(t, provider.Seed(context.Background(), store))

	ledger := inventory.NewLedger(store, inventory.WithLogger(discard))
	notes := notification.NewRepository(store)
	orders := order.NewService(store, ledger, notes, order.WithLogger(discard))

	h := Handlers{
		Catalog:       NewCatalogHandler(ledger, 5*time.Second, discard),
		Cart:          NewCartHandler(cart.NewRegistry(nil, discard), ledger, orders, 5*time.Second, discard),
		Orders:        NewOrdersHandler(orders, 5*time.Second, discard),
		Notifications: NewNotificationsHandler(notes, 5*time.Second, discard),
		Profile:       NewProfileHandler(profile.NewService(store, discard), 5*time.Second, discard),
	}
	return &testAPI{router: NewRouter(h, 5*time.Second, discard), ledger: ledger}
}

func (a *testAPI) do(t *testing.T, who caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if who.id != "" {
		req.Header.Set(HeaderUserID, who.id)
		req.Header.Set(HeaderUserRole, who.role)
		req.Header.Set(HeaderUserName, "Test "+who.id)
		req.Header.Set(HeaderUserEmail, who.id+"@example.com")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func checkoutBody() CheckoutRequestDTO {
	return CheckoutRequestDTO{
		PaymentMethod:  domain.PaymentCOD,
		DeliveryMethod: domain.DeliveryPickup,
		ScheduledDate:  time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		ScheduledTime:  "10:00 AM",
	}
}

func (a *testAPI) placeOrder(t *testing.T, who caller) domain.Order {
	t.Helper()
	rec := a.do(t, who, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, who, http.MethodPost, "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return *decodeBody[OrderResponse](t, rec).Order
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, guest, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListProducts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, guest, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Product](t, rec), 4)

	rec = api.do(t, guest, http.MethodGet, "/api/v1/products?category=Cookies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Product](t, rec), 2)

	rec = api.do(t, guest, http.MethodGet, "/api/v1/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	api := newTestAPI(t)

	api.do(t, ana, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p2"})
	rec := api.do(t, ana, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decodeBody[CartResponse](t, rec)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, int64(300), c.Total)

	rec = api.do(t, ana, http.MethodPost, "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeBody[OrderResponse](t, rec).Order
	assert.Equal(t, domain.OrderStatusPending, placed.Status)
	assert.Equal(t, int64(300), placed.TotalAmount)

	rec = api.do(t, ana, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, 0, decodeBody[CartResponse](t, rec).Count)

	p, err := api.ledger.Product(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, 13, p.Stock)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+placed.ID+"/status", StatusRequestDTO{Status: "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[OrderResponse](t, rec)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Order.Status)
	assert.Empty(t, updated.Warning)

	rec = api.do(t, ana, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decodeBody[NotificationsResponse](t, rec)
	require.Len(t, notes.Notifications, 1)
	assert.Equal(t, 1, notes.Unread)
	assert.Equal(t, notification.Message(placed.ID, domain.OrderStatusConfirmed), notes.Notifications[0].Message)

	// Somebody else's notification is invisible.
	rec = api.do(t, ben, http.MethodPost, "/api/v1/notifications/"+notes.Notifications[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, ana, http.MethodPost, "/api/v1/notifications/"+notes.Notifications[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, ana, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, 0, decodeBody[NotificationsResponse](t, rec).Unread)

	rec = api.do(t, ana, http.MethodGet, "/api/v1/orders", nil)
	mine := decodeBody[[]domain.Order](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, placed.ID, mine[0].ID)

	rec = api.do(t, ben, http.MethodGet, "/api/v1/orders/"+placed.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthorization(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, guest, http.MethodGet, "/api/v1/cart", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, guest, http.MethodGet, "/api/v1/notifications", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, guest, http.MethodGet, "/api/v1/admin/summary", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, ana, http.MethodGet, "/api/v1/admin/summary", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, admin, http.MethodGet, "/api/v1/admin/summary", nil).Code)
}

func TestCheckout_Errors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, ana, http.MethodPost, "/api/v1/checkout", checkoutBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, ana, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p4"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "out_of_stock", decodeBody[ErrorResponse](t, rec).Code)

	api.do(t, ana, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1"})
	body := checkoutBody()
	body.PaymentMethod = domain.PaymentGCash
	rec = api.do(t, ana, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A failed checkout keeps the cart.
	rec = api.do(t, ana, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, 1, decodeBody[CartResponse](t, rec).Count)
}

func TestUpdateStatus_Errors(t *testing.T) {
	api := newTestAPI(t)
	placed := api.placeOrder(t, ana)

	rec := api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/ORD-NOPE00/status", StatusRequestDTO{Status: "Baking"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+placed.ID+"/status", StatusRequestDTO{Status: "Shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+placed.ID+"/status", StatusRequestDTO{Status: "Cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+placed.ID+"/status", StatusRequestDTO{Status: "Baking"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeBody[ErrorResponse](t, rec).Code)
}

func TestInquiryAndQuote(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, guest, http.MethodPost, "/api/v1/inquiries", InquiryRequestDTO{Size: "6 inch", Date: "2030-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, guest, http.MethodPost, "/api/v1/inquiries", InquiryRequestDTO{
		Size: "6 inch", Date: "2030-01-01", Name: "Cara", Email: "cara@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inq := decodeBody[OrderResponse](t, rec).Order
	assert.True(t, inq.IsCustomInquiry)
	assert.Equal(t, domain.GuestUserID, inq.UserID)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+inq.ID+"/quote", QuoteRequestDTO{Amount: 1800})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1800), decodeBody[OrderResponse](t, rec).Order.TotalAmount)

	rec = api.do(t, admin, http.MethodGet, "/api/v1/admin/orders?type=inquiry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Order](t, rec), 1)

	placed := api.placeOrder(t, ana)
	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/orders/"+placed.ID+"/quote", QuoteRequestDTO{Amount: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminProducts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, admin, http.MethodPost, "/api/v1/admin/products", domain.Product{
		Name: "Ube Cheese Pandesal", Price: 95, Category: domain.CategoryPastries, Stock: 12,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.Product](t, rec)
	assert.NotEmpty(t, created.ID)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/products/"+created.ID+"/stock", map[string]int{"delta": -20})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[domain.Product](t, rec).Stock)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/products/"+created.ID+"/stock", map[string]int{"stock": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, decodeBody[domain.Product](t, rec).Stock)

	rec = api.do(t, admin, http.MethodPut, "/api/v1/admin/products/"+created.ID+"/stock", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, admin, http.MethodPost, "/api/v1/admin/products", domain.Product{Name: "", Category: domain.CategoryCakes})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, admin, http.MethodDelete, "/api/v1/admin/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, guest, http.MethodGet, "/api/v1/products", nil)
	assert.Len(t, decodeBody[[]domain.Product](t, rec), 4)
}

func TestProfile(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, ana, http.MethodPut, "/api/v1/profile/name", NameRequestDTO{Name: "Ana Cruz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Cruz", decodeBody[domain.User](t, rec).Name)

	rec = api.do(t, ana, http.MethodPut, "/api/v1/profile/name", NameRequestDTO{Name: "Ana C."})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = api.do(t, ana, http.MethodPut, "/api/v1/profile/phone", PhoneRequestDTO{Phone: "12345"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, ana, http.MethodPut, "/api/v1/profile/phone", PhoneRequestDTO{Phone: "09171234567"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, ana, http.MethodGet, "/api/v1/profile", nil)
	u := decodeBody[domain.User](t, rec)
	assert.Equal(t, "Ana Cruz", u.Name)
	assert.Equal(t, "09171234567", u.Phone)
}

// ordersStub returns a canned status update result.
type ordersStub struct {
	Orders
	order *domain.Order
	err   error
}

func (s ordersStub) UpdateStatus(context.Context, string, domain.OrderStatus) (*domain.Order, error) {
	return s.order, s.err
}

func TestUpdateStatus_SecondaryFailureIsWarning(t *testing.T) {
	o := &domain.Order{ID: "ORD-ABC123", Status: domain.OrderStatusBaking}
	h := NewOrdersHandler(ordersStub{order: o, err: order.ErrNotificationNotSaved}, time.Second, discard)

	r := chi.NewRouter()
	r.Put("/orders/{id}/status", h.UpdateStatus)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/ORD-ABC123/status", bytes.NewBufferString(`{"status":"Baking"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[OrderResponse](t, rec)
	assert.Equal(t, "ORD-ABC123", resp.Order.ID)
	assert.Contains(t, resp.Warning, "notification was not saved")
}

func TestUpdateStatus_ProviderFailureIs500(t *testing.T) {
	h := NewOrdersHandler(ordersStub{err: errors.New("connection reset")}, time.Second, discard)

	r := chi.NewRouter()
	r.Put("/orders/{id}/status", h.UpdateStatus)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/ORD-ABC123/status", bytes.NewBufferString(`{"status":"Baking"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeBody[ErrorResponse](t, rec).Code)
}
