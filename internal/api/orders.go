package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// OrdersHandler handles purchase order endpoints.
type OrdersHandler struct {
	DB            *sqlx.DB
	ExportCharset string
}

type statusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListOrders(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	o, err := store.CreateOrder(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "create order")
		return
	}

	slog.Info("order created", "user", username(r), "id", o.ID, "name", o.Name)
	jsonResponse(w, http.StatusCreated, o)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get order")
		return
	}
	if o == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	if o.Lines == nil {
		o.Lines = []model.OrderLine{}
	}
	jsonResponse(w, http.StatusOK, o)
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteOrder(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete order")
		return
	}

	slog.Info("order deleted", "user", username(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// SetStatus handles PUT /api/orders/{id}/status.
func (h *OrdersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	o, err := store.SetOrderStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		storeError(w, err, "change order status")
		return
	}

	slog.Info("order status changed", "user", username(r), "id", id, "status", o.Status)
	jsonResponse(w, http.StatusOK, o)
}

// AddLine handles POST /api/orders/{id}/lines.
func (h *OrdersHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req store.LineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	line, err := store.AddOrderLine(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "add order line")
		return
	}
	jsonResponse(w, http.StatusCreated, line)
}

// UpdateLine handles PUT /api/orders/{id}/lines/{lineID}.
func (h *OrdersHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	var req store.LineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	line, err := store.UpdateOrderLine(r.Context(), h.DB, id, lineID, req)
	if err != nil {
		storeError(w, err, "update order line")
		return
	}
	jsonResponse(w, http.StatusOK, line)
}

// DeleteLine handles DELETE /api/orders/{id}/lines/{lineID}.
func (h *OrdersHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	if err := store.DeleteOrderLine(r.Context(), h.DB, id, lineID); err != nil {
		storeError(w, err, "delete order line")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order line deleted"})
}

// Report handles GET /api/orders/{id}/report.
func (h *OrdersHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rep, err := store.OrderReport(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "build order report")
		return
	}
	if rep == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	writeReport(w, r, rep, h.ExportCharset)
}
