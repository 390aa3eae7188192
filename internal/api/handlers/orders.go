package handlers

import (
	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/ports"
	"net/http"
)

// OrderHandler exposes read-only order retrieval endpoints.
type OrderHandler struct {
	Repo ports.OrderRepository
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Repo.ListOrders(r.Context())
	if err != nil {
		writeServiceError(w, r, "list orders", err)
		return
	}

	res := dto.ListOrdersResponse{
		Orders: make([]dto.OrderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, fromOrder(o))
	}

	writeJSON(w, r, http.StatusOK, res)
}
