package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/pricing"
	"github.com/egannguyen/salon-shop/backend/internal/repository/memory"
	"github.com/egannguyen/salon-shop/backend/internal/service"
)

var (
	customer = entity.Identity{UserID: "user-1", Email: "mai@example.com", Name: "Mai", Role: entity.RoleCustomer}
	stranger = entity.Identity{UserID: "user-2", Email: "lan@example.com", Name: "Lan", Role: entity.RoleCustomer}
	admin    = entity.Identity{UserID: "admin-1", Email: "ops@example.com", Name: "Ops", Role: entity.RoleAdmin}
)

type testServer struct {
	handler  http.Handler
	verifier *auth.TokenVerifier
	store    *memory.Store
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	rates := pricing.DefaultRates()

	require.NoError(t, store.Products().Seed(ctx, []entity.Product{
		{ID: "p-serum", SKU: "SRM-01", Name: "Argan Hair Serum", Category: "Hair", Price: decimal.NewFromInt(50000), Stock: 10, IsActive: true},
		{ID: "p-mask", SKU: "MSK-01", Name: "Repair Mask", Category: "Hair", Price: decimal.NewFromInt(120000), Stock: 1, IsActive: true},
	}))
	require.NoError(t, store.Coupons().Create(ctx, &entity.Coupon{
		Code: "SAVE10", Type: entity.DiscountPercentage, Value: decimal.NewFromInt(10),
		IsActive: true, StartsAt: time.Now().Add(-time.Hour),
	}))

	rewards := service.NewRewardService(store.Rewards(), rates, pricing.DefaultTiers())
	notifications := service.NewNotificationService(store.Notifications())
	cart := memory.NewCartStore()

	h := NewHandler(Services{
		Catalog:       service.NewCatalogService(store.Products()),
		Cart:          service.NewCartService(cart, store.Products()),
		Coupons:       service.NewCouponService(store.Coupons()),
		Rewards:       rewards,
		Notifications: notifications,
		Orders: service.NewOrderService(service.OrderServiceDeps{
			Products:  store.Products(),
			Coupons:   store.Coupons(),
			Orders:    store.Orders(),
			Rewards:   store.Rewards(),
			Checkouts: store.Checkouts(),
			Cart:      cart,
			Notifier:  notifications,
			Earner:    rewards,
			Rates:     rates,
		}),
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	verifier := auth.NewTokenVerifier("test-secret", "salon-shop-test")
	return &testServer{
		handler:  EnableCORS(auth.Middleware(verifier)(mux)),
		verifier: verifier,
		store:    store,
	}
}

func (s *testServer) do(t *testing.T, method, path string, as *entity.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := s.verifier.Issue(*as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func checkoutBody(items ...map[string]any) map[string]any {
	return map[string]any{
		"items":           items,
		"shipping_method": "STANDARD",
		"shipping_address": map[string]any{
			"full_name": "Mai Nguyen", "phone": "0900000000", "line1": "12 Le Loi", "city": "Ho Chi Minh City",
		},
		"contact_name":   "Mai Nguyen",
		"contact_email":  "mai@example.com",
		"payment_method": "COD",
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	srv := setupServer(t)

	body := checkoutBody(map[string]any{"product_id": "p-serum", "quantity": 2})
	body["coupon_code"] = "SAVE10"

	w := srv.do(t, http.MethodPost, "/api/orders", &customer, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decodeBody(t, w)
	assert.Equal(t, "116200", order["total_amount"])
	assert.Equal(t, "PENDING", order["status"])
	number, _ := order["order_number"].(string)
	require.NotEmpty(t, number)

	w = srv.do(t, http.MethodGet, "/api/orders/"+number, &customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, number, decodeBody(t, w)["order_number"])

	w = srv.do(t, http.MethodGet, "/api/orders/"+number, &stranger, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodGet, "/api/notifications", &customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []entity.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, number, notes[0].OrderNumber)
}

func TestCheckoutEndpoint_Errors(t *testing.T) {
	srv := setupServer(t)
	item := map[string]any{"product_id": "p-serum", "quantity": 1}

	tests := []struct {
		name   string
		as     *entity.Identity
		body   any
		status int
	}{
		{"no session", nil, checkoutBody(item), http.StatusUnauthorized},
		{"empty items", &customer, checkoutBody(), http.StatusBadRequest},
		{"insufficient stock", &customer, checkoutBody(map[string]any{"product_id": "p-mask", "quantity": 3}), http.StatusBadRequest},
		{"bad payment method", &customer, func() any {
			b := checkoutBody(item)
			b["payment_method"] = "BARTER"
			return b
		}(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/orders", tt.as, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeBody(t, w)["error"])
		})
	}

	orders, err := srv.store.Orders().FindRecent(context.Background(), "", 100)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestInvalidTokenRejected(t *testing.T) {
	srv := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodPost, "/api/cart/items", &customer, map[string]any{"product_id": "p-serum", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "100000", decodeBody(t, w)["subtotal"])

	w = srv.do(t, http.MethodPut, "/api/cart/items/p-serum", &customer, map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50000", decodeBody(t, w)["subtotal"])

	w = srv.do(t, http.MethodDelete, "/api/cart/items/p-serum", &customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decodeBody(t, w)["subtotal"])

	w = srv.do(t, http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCouponValidateEndpoint(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodPost, "/api/coupons/validate", &customer, map[string]any{"code": "save10", "subtotal": "250000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "25000", decodeBody(t, w)["discount"])

	w = srv.do(t, http.MethodPost, "/api/coupons/validate", &customer, map[string]any{"code": "NOPE", "subtotal": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminOrderStatus(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodPost, "/api/orders", &customer, checkoutBody(map[string]any{"product_id": "p-serum", "quantity": 1}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	number := decodeBody(t, w)["order_number"].(string)
	path := "/api/admin/orders/" + number + "/status"

	w = srv.do(t, http.MethodPatch, path, &customer, map[string]any{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPatch, path, &admin, map[string]any{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPatch, path, &admin, map[string]any{"status": "CONFIRMED", "note": "payment received"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CONFIRMED", decodeBody(t, w)["status"])

	w = srv.do(t, http.MethodPost, "/api/orders/"+number+"/cancel", &customer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodGet, "/api/admin/orders?status=CONFIRMED", &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []entity.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodGet, "/api/products?category=hair", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	w = srv.do(t, http.MethodGet, "/api/products/p-missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	newProduct := map[string]any{"sku": "oil-01", "name": "Scalp Oil", "price": "80000", "stock": 5, "is_active": true}
	w = srv.do(t, http.MethodPost, "/api/admin/products", &customer, newProduct)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/api/admin/products", &admin, newProduct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	assert.Equal(t, "OIL-01", created["sku"])

	w = srv.do(t, http.MethodGet, "/api/products/"+created["id"].(string), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRewardEndpoints(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(t, http.MethodGet, "/api/rewards/tiers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tiers []entity.RewardTier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tiers))
	assert.Len(t, tiers, 4)

	w = srv.do(t, http.MethodGet, "/api/rewards", &customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeBody(t, w)["balance"])

	w = srv.do(t, http.MethodGet, "/api/rewards", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestWriteErrorHidesInfrastructureErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	writeError(w, r, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeBody(t, w)["error"])
}
