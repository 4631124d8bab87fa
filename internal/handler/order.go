package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rental/internal/domain"
	"rental/internal/service"
)

// OrderHandler handles HTTP requests for rental orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	VehicleID   string    `json:"vehicle_id"`
	UserID      string    `json:"user_id"`
	RentalStart time.Time `json:"rental_start"`
	RentalEnd   time.Time `json:"rental_end"`
}

// RejectOrderRequest is the HTTP request body for rejecting an order.
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// ActorRequest carries the acting user for owner-checked transitions.
type ActorRequest struct {
	UserID string `json:"user_id"`
}

// OrderResponse is the HTTP response for order data.
type OrderResponse struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicle_id"`
	UserID      string  `json:"user_id"`
	RentalStart string  `json:"rental_start"`
	RentalEnd   string  `json:"rental_end"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	ConfirmedAt string  `json:"confirmed_at,omitempty"`
	CanceledAt  string  `json:"canceled_at,omitempty"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// CreateOrderResponse is the HTTP response for creating an order.
type CreateOrderResponse struct {
	Order   OrderResponse    `json:"order"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

func orderToResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		VehicleID:   o.VehicleID,
		UserID:      o.UserID,
		RentalStart: o.RentalStart.Format(time.RFC3339),
		RentalEnd:   o.RentalEnd.Format(time.RFC3339),
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		Status:      string(o.Status),
	}
	if !o.ConfirmedAt.IsZero() {
		resp.ConfirmedAt = o.ConfirmedAt.Format(time.RFC3339)
	}
	if !o.CanceledAt.IsZero() {
		resp.CanceledAt = o.CanceledAt.Format(time.RFC3339)
	}
	if !o.StartedAt.IsZero() {
		resp.StartedAt = o.StartedAt.Format(time.RFC3339)
	}
	if !o.CompletedAt.IsZero() {
		resp.CompletedAt = o.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), service.CreateOrderRequest{
		VehicleID:   req.VehicleID,
		UserID:      req.UserID,
		RentalStart: req.RentalStart,
		RentalEnd:   req.RentalEnd,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := CreateOrderResponse{Order: orderToResponse(result.Order)}
	if result.Payment != nil {
		pr := paymentToResponse(result.Payment)
		response.Payment = &pr
	}
	respondJSON(c, http.StatusCreated, response)
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}

// ListOrders handles GET /v1/orders?status=...&user_id=...
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var (
		orders []*domain.Order
		err    error
	)

	switch {
	case c.Query("user_id") != "":
		orders, err = h.orderService.GetOrdersByUser(c.Request.Context(), c.Query("user_id"))
	case c.Query("status") != "":
		orders, err = h.orderService.GetOrdersByStatus(c.Request.Context(), domain.OrderStatus(c.Query("status")))
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status or user_id query parameter required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderToResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// ConfirmOrder handles POST /v1/orders/:id/confirm
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	order, err := h.orderService.ConfirmOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}

// RejectOrder handles POST /v1/orders/:id/reject
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.RejectOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}

// CancelOrder handles POST /v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}

// StartOrder handles POST /v1/orders/:id/start
func (h *OrderHandler) StartOrder(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.StartOrder(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}

// CompleteOrder handles POST /v1/orders/:id/complete
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.CompleteOrder(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, orderToResponse(order))
}
