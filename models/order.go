package models

import (
	"time"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known values
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentOther          PaymentMethod = "other"
)

// Valid reports whether the payment method is one of the known values
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentCreditCard, PaymentPayPal, PaymentOther:
		return true
	}
	return false
}

// UnknownProductName is shown for items whose product was deleted after
// the item snapshotted its price.
const UnknownProductName = "Unknown Product"

// Order is the root of the order aggregate. TotalPrice is derived: it always
// equals the sum of Quantity*Price over Items and is never set from client
// input. The order service recomputes it inside the same transaction as
// every item mutation.
type Order struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	FirstName       string        `gorm:"size:100;not null" json:"first_name"`
	LastName        string        `gorm:"size:100;not null" json:"last_name"`
	PhoneNumber     string        `gorm:"size:12;not null" json:"phone_number"`
	Status          OrderStatus   `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentMethod   PaymentMethod `gorm:"size:20;not null;default:'cash_on_delivery'" json:"payment_method"`
	ShippingAddress string        `gorm:"type:text;not null" json:"shipping_address"`
	TotalPrice      float64       `gorm:"type:decimal(10,2);not null;default:0;check:total_price >= 0" json:"total_price"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. Price is snapshotted from the product
// at creation time; later product price changes do not touch it. ProductID
// is nullable: deleting a product sets it to NULL and the item survives
// with its snapshotted price.
type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	OrderID   uint     `gorm:"not null;index" json:"order_id"`
	ProductID *uint    `gorm:"index" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	Quantity  int      `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	Price     float64  `gorm:"type:decimal(10,2);not null" json:"price"`

	// Computed display fields, filled by Materialize after loading
	TotalPrice  float64 `gorm:"-" json:"total_price"`
	ProductName string  `gorm:"-" json:"product_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is the item's contribution to the order total
func (i *OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.Price
}

// DisplayName is the product name, or a placeholder when the product was
// deleted after the item was created
func (i *OrderItem) DisplayName() string {
	if i.Product != nil {
		return i.Product.Name
	}
	return UnknownProductName
}

// Materialize fills the computed display fields of the item
func (i *OrderItem) Materialize() {
	i.TotalPrice = i.LineTotal()
	i.ProductName = i.DisplayName()
}

// Materialize fills the computed display fields of all the order's items
func (o *Order) Materialize() {
	for idx := range o.Items {
		o.Items[idx].Materialize()
	}
}
