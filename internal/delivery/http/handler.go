package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/service"
)

// Handler handles HTTP requests for the application.
type Handler struct {
	catalog       *service.CatalogService
	cart          *service.CartService
	coupons       *service.CouponService
	rewards       *service.RewardService
	orders        *service.OrderService
	notifications *service.NotificationService
}

// Services bundles the services exposed over HTTP.
type Services struct {
	Catalog       *service.CatalogService
	Cart          *service.CartService
	Coupons       *service.CouponService
	Rewards       *service.RewardService
	Orders        *service.OrderService
	Notifications *service.NotificationService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		catalog:       s.Catalog,
		cart:          s.Cart,
		coupons:       s.Coupons,
		rewards:       s.Rewards,
		orders:        s.Orders,
		notifications: s.Notifications,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{productID}", h.handleUpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productID}", h.handleRemoveCartItem)

	mux.HandleFunc("POST /api/coupons/validate", h.handleValidateCoupon)

	mux.HandleFunc("GET /api/rewards", h.handleRewardSummary)
	mux.HandleFunc("GET /api/rewards/tiers", h.handleRewardTiers)

	mux.HandleFunc("POST /api/orders", h.handleCheckout)
	mux.HandleFunc("GET /api/orders", h.handleListMyOrders)
	mux.HandleFunc("GET /api/orders/{number}", h.handleGetOrder)
	mux.HandleFunc("POST /api/orders/{number}/cancel", h.handleCancelOrder)

	mux.HandleFunc("GET /api/notifications", h.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.handleMarkNotificationRead)

	mux.HandleFunc("POST /api/admin/products", h.handleCreateProduct)
	mux.HandleFunc("GET /api/admin/coupons", h.handleListCoupons)
	mux.HandleFunc("POST /api/admin/coupons", h.handleCreateCoupon)
	mux.HandleFunc("GET /api/admin/orders", h.handleListRecentOrders)
	mux.HandleFunc("PATCH /api/admin/orders/{number}/status", h.handleUpdateOrderStatus)
	mux.HandleFunc("POST /api/admin/rewards/{userID}/recompute", h.handleRecomputeRewards)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// writeError maps service errors to status codes. Infrastructure errors are
// logged and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *entity.ValidationError
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, entity.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, entity.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, entity.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.As(err, &validation):
		status, msg = http.StatusBadRequest, validation.Error()
	case errors.Is(err, entity.ErrInsufficientStock),
		errors.Is(err, entity.ErrCouponExhausted),
		errors.Is(err, entity.ErrInsufficientPoints):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return entity.Invalid("", "invalid request body")
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return fallback
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func identity(r *http.Request) *entity.Identity {
	return auth.FromContext(r.Context())
}

// EnableCORS is a middleware to allow the React frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
