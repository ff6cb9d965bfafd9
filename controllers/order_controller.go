package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humoyun-dev/akmaljanvc-watch/config"
	"github.com/humoyun-dev/akmaljanvc-watch/models"
	"github.com/humoyun-dev/akmaljanvc-watch/services"
)

// OrderItemRequest is one item payload inside an order request. An ID
// addresses an existing item (update flow only). Price is absent on
// purpose: it is snapshotted server-side from the product.
type OrderItemRequest struct {
	ID        *uint `json:"id"`
	ProductID uint  `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	FirstName       string             `json:"first_name" binding:"required"`
	LastName        string             `json:"last_name" binding:"required"`
	PhoneNumber     string             `json:"phone_number" binding:"required"`
	PaymentMethod   string             `json:"payment_method"`
	ShippingAddress string             `json:"shipping_address"`
	OrderItems      []OrderItemRequest `json:"order_items"`
}

// UpdateOrderRequest represents the request body for updating an order.
// Omitted fields keep their stored values.
type UpdateOrderRequest struct {
	FirstName       *string            `json:"first_name"`
	LastName        *string            `json:"last_name"`
	PhoneNumber     *string            `json:"phone_number"`
	Status          *string            `json:"status"`
	PaymentMethod   *string            `json:"payment_method"`
	ShippingAddress *string            `json:"shipping_address"`
	OrderItems      []OrderItemRequest `json:"order_items"`
}

// AddOrderItemRequest represents the request body for adding a single item
type AddOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

// CreateOrder handles POST /api/v1/orders - public checkout
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.CreateOrder(c.Request.Context(), services.OrderInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		ShippingAddress: req.ShippingAddress,
	}, itemInputs(req.OrderItems))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders (admin only)
func ListOrders(c *gin.Context) {
	svc := services.NewOrderService(config.GetDB())
	orders, err := svc.ListOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id (admin only). Order fields and
// nested item payloads are applied atomically; the total is recomputed in
// the same transaction.
func UpdateOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	update := services.OrderUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		ShippingAddress: req.ShippingAddress,
	}
	if req.Status != nil {
		status := models.OrderStatus(*req.Status)
		update.Status = &status
	}
	if req.PaymentMethod != nil {
		method := models.PaymentMethod(*req.PaymentMethod)
		update.PaymentMethod = &method
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.UpdateOrder(c.Request.Context(), id, update, itemInputs(req.OrderItems))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:id (admin only)
func DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	if err := svc.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// AddOrderItem handles POST /api/v1/orders/:id/items - adds a single item
// to an existing order without resending the whole order
func AddOrderItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AddOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	svc := services.NewOrderService(config.GetDB())
	item, err := svc.AddOrderItem(c.Request.Context(), id, req.ProductID, quantityOrDefault(req.Quantity))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// quantityOrDefault applies the default quantity of 1 when the field was
// omitted. An explicit zero stays zero so the service can reject it.
func quantityOrDefault(quantity *int) int {
	if quantity == nil {
		return 1
	}
	return *quantity
}

func itemInputs(reqs []OrderItemRequest) []services.OrderItemInput {
	items := make([]services.OrderItemInput, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, services.OrderItemInput{
			ID:        r.ID,
			ProductID: r.ProductID,
			Quantity:  quantityOrDefault(r.Quantity),
		})
	}
	return items
}
