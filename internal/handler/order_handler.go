package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// OrderHandler handles order placement and lifecycle endpoints.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder places a new order for the authenticated user.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid order payload")
		return
	}

	userID := c.GetInt("user_id")
	order, err := h.orderService.PlaceOrder(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInsufficientStock):
			utils.Error(c, 409, "INSUFFICIENT_STOCK", "Not enough stock for one of the items")
		case errors.Is(err, utils.ErrVariantRequired):
			utils.Error(c, 400, "VARIANT_REQUIRED", "A variant must be selected for this product")
		case errors.Is(err, utils.ErrProductNotFound),
			errors.Is(err, utils.ErrVariantNotFound),
			errors.Is(err, utils.ErrCompanyNotFound):
			utils.Error(c, 404, "ITEM_NOT_FOUND", "One of the ordered items no longer exists")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to place order")
		}
		return
	}

	utils.Success(c, 201, "Order placed successfully", gin.H{"order": order})
}

// GetOrder returns one order. Customers only see their own orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_PARAM", "Invalid order id")
		return
	}

	userID := c.GetInt("user_id")
	isAdmin := c.GetBool("is_admin")
	order, err := h.orderService.GetOrderForUser(c.Request.Context(), id, userID, isAdmin)
	if err != nil {
		if errors.Is(err, utils.ErrOrderNotFound) {
			utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get order")
		return
	}

	utils.Success(c, 200, "Order retrieved successfully", gin.H{"order": order})
}

// GetMyOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "pageSize", 10)

	userID := c.GetInt("user_id")
	orders, total, err := h.orderService.ListOrdersForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get orders")
		return
	}

	utils.SuccessWithPagination(c, 200, "Orders retrieved successfully", gin.H{
		"orders": orders,
	}, page, limit, total)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateStatus moves an order to a new lifecycle status. Admin only.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_PARAM", "Invalid order id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid status payload")
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
		case errors.Is(err, utils.ErrInvalidStatusTransition):
			utils.Error(c, 409, "INVALID_STATUS_TRANSITION", "Order cannot move to the requested status")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update order status")
		}
		return
	}

	utils.Success(c, 200, "Order status updated successfully", gin.H{"order": order})
}
