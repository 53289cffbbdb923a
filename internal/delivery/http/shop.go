package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.catalog.List(r.Context(), entity.ProductFilter{
		Category:   q.Get("category"),
		Brand:      q.Get("brand"),
		Search:     q.Get("q"),
		Featured:   queryBool(r, "featured"),
		OnSale:     queryBool(r, "on_sale"),
		Bestseller: queryBool(r, "bestseller"),
		Limit:      queryInt(r, "limit", 0),
		Offset:     queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Get(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.cart.AddItem(r.Context(), identity(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.cart.UpdateItem(r.Context(), identity(r), r.PathValue("productID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveItem(r.Context(), identity(r), r.PathValue("productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

type validateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (h *Handler) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	preview, err := h.coupons.Validate(r.Context(), identity(r), req.Code, req.Subtotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) handleRewardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.rewards.Summary(r.Context(), identity(r), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleRewardTiers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.rewards.Tiers())
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notifications.List(r.Context(), identity(r), queryBool(r, "unread"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
