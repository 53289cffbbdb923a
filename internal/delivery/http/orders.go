package http

import (
	"net/http"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/service"
)

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if id == nil {
		writeError(w, r, entity.ErrUnauthenticated)
		return
	}

	var req service.CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMyOrders(r.Context(), identity(r), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), identity(r), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	order, err := h.orders.Cancel(r.Context(), identity(r), r.PathValue("number"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// --- Admin ---

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Create(r.Context(), identity(r), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *Handler) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c entity.Coupon
	if err := decode(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.coupons.Create(r.Context(), identity(r), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListRecentOrders(w http.ResponseWriter, r *http.Request) {
	status := entity.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.orders.ListRecent(r.Context(), identity(r), status, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type statusRequest struct {
	Status entity.OrderStatus `json:"status"`
	Note   string             `json:"note"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), identity(r), r.PathValue("number"), req.Status, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleRecomputeRewards(w http.ResponseWriter, r *http.Request) {
	balance, err := h.rewards.Recompute(r.Context(), identity(r), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}
