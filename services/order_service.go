package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/humoyun-dev/akmaljanvc-watch/models"
)

// OrderInput carries the customer-supplied fields for creating an order.
// TotalPrice is deliberately absent: it is derived, never accepted.
type OrderInput struct {
	FirstName       string
	LastName        string
	PhoneNumber     string
	PaymentMethod   models.PaymentMethod
	ShippingAddress string
}

// OrderUpdate carries a partial update of an order's own fields.
// Nil pointers leave the stored value untouched.
type OrderUpdate struct {
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
	Status          *models.OrderStatus
	PaymentMethod   *models.PaymentMethod
	ShippingAddress *string
}

// OrderItemInput describes one item payload. A nil ID means "create a new
// item"; a set ID means "mutate that existing item". Quantity must already
// be resolved by the caller (the HTTP layer applies the default of 1 when
// the field is omitted).
type OrderItemInput struct {
	ID        *uint
	ProductID uint
	Quantity  int
}

// OrderService owns the order aggregate: an order plus its items form one
// consistency boundary. Every mutating operation runs as a single
// transaction that ends with a recompute of the parent's total, so the
// invariant total_price == sum(quantity * price) holds at rest after every
// operation.
//
// Concurrent mutations of the same order are serialized with a row-level
// lock (SELECT ... FOR UPDATE) on the order row, taken before any item
// write, so the second writer's recompute always sees the first writer's
// committed items.
type OrderService struct {
	db        *gorm.DB
	publisher PublisherInterface
}

// NewOrderService creates an order service over the given database handle.
// It picks up the process-wide event publisher if one was configured.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:        db,
		publisher: GetPublisher(),
	}
}

// SetPublisher overrides the event publisher (primarily for testing)
func (s *OrderService) SetPublisher(p PublisherInterface) {
	s.publisher = p
}

// CreateOrder validates the input, persists the order with a zero total,
// creates its items with prices snapshotted from the referenced products,
// and recomputes the total, all in one transaction. The returned order is
// fully materialized with items and products.
func (s *OrderService) CreateOrder(ctx context.Context, input OrderInput, items []OrderItemInput) (*models.Order, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}
	if err := validateItemInputs(items, false); err != nil {
		return nil, err
	}

	order := models.Order{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		PhoneNumber:     input.PhoneNumber,
		Status:          models.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		TotalPrice:      0,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCashOnDelivery
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The order is saved first so the items have a parent identity.
		// The insert holds the row lock for the rest of the transaction.
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, in := range items {
			if _, err := createItem(tx, &order, in); err != nil {
				return err
			}
		}
		return s.recomputeTotal(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderCreated(ctx, &order)

	return s.GetOrder(ctx, order.ID)
}

// UpdateOrder applies field updates and item payloads to an existing order
// and recomputes its total. The whole operation is atomic: any invalid item
// rolls back the field updates and every item mutation.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uint, update OrderUpdate, items []OrderItemInput) (*models.Order, error) {
	if err := validateOrderUpdate(update); err != nil {
		return nil, err
	}
	if err := validateItemInputs(items, true); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		fields := orderUpdateColumns(update)
		if len(fields) > 0 {
			if err := tx.Model(order).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update order %d: %w", orderID, err)
			}
		}

		for _, in := range items {
			if in.ID != nil {
				if err := updateItem(tx, order, in); err != nil {
					return err
				}
			} else {
				if _, err := createItem(tx, order, in); err != nil {
					return err
				}
			}
		}
		return s.recomputeTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orderID)
}

// AddOrderItem creates a single item under an existing order without
// resending the whole order, then recomputes the parent total in the same
// transaction. The returned item carries its computed line total.
func (s *OrderService) AddOrderItem(ctx context.Context, orderID, productID uint, quantity int) (*models.OrderItem, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Message: "Quantity must be greater than zero."}
	}

	var item *models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		item, err = createItem(tx, order, OrderItemInput{ProductID: productID, Quantity: quantity})
		if err != nil {
			return err
		}
		return s.recomputeTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}

	item.Materialize()
	return item, nil
}

// RecomputeTotal re-derives the order's total from its current item set and
// persists it. It is idempotent: with no intervening item mutation,
// consecutive calls produce the same value.
func (s *OrderService) RecomputeTotal(ctx context.Context, orderID uint) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := s.recomputeTotal(tx, order); err != nil {
			return err
		}
		total = order.TotalPrice
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetOrder loads an order with its items and their products, materialized
// for display
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	order.Materialize()
	return &order, nil
}

// ListOrders returns all orders, newest first, with items materialized
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	for idx := range orders {
		orders[idx].Materialize()
	}
	return orders, nil
}

// DeleteOrder removes an order and all of its items
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		// Items are deleted explicitly rather than relying on the database
		// cascade, which sqlite only enforces with foreign_keys=on.
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", orderID, err)
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("failed to delete order %d: %w", orderID, err)
		}
		return nil
	})
}

// recomputeTotal sums quantity*price over the order's current items and
// writes the result. Must run inside the same transaction as the item
// mutation that triggered it, after all item writes.
func (s *OrderService) recomputeTotal(tx *gorm.DB, order *models.Order) error {
	if order.ID == 0 {
		return &ConsistencyError{Message: "cannot recompute total for an unsaved order"}
	}

	var total float64
	err := tx.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(quantity * price), 0)").
		Scan(&total).Error
	if err != nil {
		return fmt.Errorf("failed to sum items of order %d: %w", order.ID, err)
	}

	if err := tx.Model(order).Update("total_price", total).Error; err != nil {
		return fmt.Errorf("failed to persist total of order %d: %w", order.ID, err)
	}
	return nil
}

// publishOrderCreated emits an order.created event. Publishing is best
// effort: a broker failure is logged, never surfaced to the customer.
func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	evt := map[string]any{
		"order_id":     order.ID,
		"phone_number": order.PhoneNumber,
		"total_price":  order.TotalPrice,
		"created_at":   order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, "order.created", evt); err != nil {
		log.Printf("Failed to publish order.created for order %d: %v", order.ID, err)
	}
}

// lockOrder loads the order row under a row-level write lock so concurrent
// mutations of the same order serialize. sqlite has no FOR UPDATE; there the
// transaction itself serializes writers.
func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := q.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// createItem resolves the product, snapshots its current price and inserts
// the item under the order. Quantity is assumed pre-validated.
func createItem(tx *gorm.DB, order *models.Order, in OrderItemInput) (*models.OrderItem, error) {
	product, err := findProduct(tx, in.ProductID)
	if err != nil {
		return nil, err
	}

	item := models.OrderItem{
		OrderID:   order.ID,
		ProductID: &product.ID,
		Quantity:  in.Quantity,
		Price:     product.Price, // snapshot; detached from the product from here on
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item for order %d: %w", order.ID, err)
	}
	return &item, nil
}

// updateItem mutates an existing item of the order. Changing the product
// re-snapshots the price from the new product; changing only the quantity
// keeps the original snapshot.
func updateItem(tx *gorm.DB, order *models.Order, in OrderItemInput) error {
	var item models.OrderItem
	err := tx.Where("id = ? AND order_id = ?", *in.ID, order.ID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "order item", ID: *in.ID}
		}
		return fmt.Errorf("failed to load item %d of order %d: %w", *in.ID, order.ID, err)
	}

	item.Quantity = in.Quantity
	if in.ProductID != 0 && (item.ProductID == nil || *item.ProductID != in.ProductID) {
		product, err := findProduct(tx, in.ProductID)
		if err != nil {
			return err
		}
		item.ProductID = &product.ID
		item.Price = product.Price
	}

	if err := tx.Save(&item).Error; err != nil {
		return fmt.Errorf("failed to update item %d of order %d: %w", item.ID, order.ID, err)
	}
	return nil
}

func findProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: productID}
		}
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	return &product, nil
}

func validateOrderInput(input OrderInput) error {
	if input.ShippingAddress == "" {
		return &ValidationError{Message: "Shipping address is required."}
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Invalid payment method %q.", input.PaymentMethod)}
	}
	return nil
}

func validateOrderUpdate(update OrderUpdate) error {
	if update.ShippingAddress != nil && *update.ShippingAddress == "" {
		return &ValidationError{Message: "Shipping address is required."}
	}
	if update.Status != nil && !update.Status.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Invalid status %q.", *update.Status)}
	}
	if update.PaymentMethod != nil && !update.PaymentMethod.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Invalid payment method %q.", *update.PaymentMethod)}
	}
	return nil
}

// validateItemInputs runs before any write so a bad item never leaves a
// partial item set behind. allowExisting permits payloads that address an
// existing item by ID (update flow); the create flow forbids them.
func validateItemInputs(items []OrderItemInput, allowExisting bool) error {
	for _, in := range items {
		if in.ID != nil && !allowExisting {
			return &ValidationError{Message: "Item IDs are not allowed when creating an order."}
		}
		if in.ID == nil && in.ProductID == 0 {
			return &ValidationError{Message: "Product must be specified."}
		}
		if in.Quantity <= 0 {
			return &ValidationError{Message: "Quantity must be greater than zero."}
		}
	}
	return nil
}

func orderUpdateColumns(update OrderUpdate) map[string]any {
	fields := map[string]any{}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.PhoneNumber != nil {
		fields["phone_number"] = *update.PhoneNumber
	}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.PaymentMethod != nil {
		fields["payment_method"] = *update.PaymentMethod
	}
	if update.ShippingAddress != nil {
		fields["shipping_address"] = *update.ShippingAddress
	}
	return fields
}
