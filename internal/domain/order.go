package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShippingAddress groups the ship-to fields of an order.
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderLineItem is one purchased item within an order.
type OrderLineItem struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	ItemNumber string    `json:"item_number"`
	Title      string    `json:"title"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
}

// Order is a marketplace sale persisted per account. The natural key is
// (ExternalOrderID, AccountID).
type Order struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	ExternalOrderID string          `json:"external_order_id"`
	BuyerUsername   string          `json:"buyer_username"`
	BuyerName       string          `json:"buyer_name"`
	BuyerEmail      string          `json:"buyer_email"`
	TotalPrice      float64         `json:"total_price"`
	Currency        string          `json:"currency"`
	SaleDate        *time.Time      `json:"sale_date,omitempty"`
	PaidDate        *time.Time      `json:"paid_date,omitempty"`
	ShippedDate     *time.Time      `json:"shipped_date,omitempty"`
	TrackingNumber  string          `json:"tracking_number"`
	ShippingService string          `json:"shipping_service"`
	ShipTo          ShippingAddress `json:"ship_to"`
	LineItems       []OrderLineItem `json:"line_items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewOrder creates an order keyed to an account and external order id.
func NewOrder(accountID uuid.UUID, externalOrderID string) Order {
	now := time.Now()
	return Order{
		ID:              uuid.New(),
		AccountID:       accountID,
		ExternalOrderID: externalOrderID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewOrderLineItem creates a line item attached to an order.
func NewOrderLineItem(orderID uuid.UUID, itemNumber string) OrderLineItem {
	return OrderLineItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		ItemNumber: itemNumber,
	}
}

// WithImportedFields returns a copy with the mutable fields replaced by the
// incoming record's values. Line items are replaced wholesale and re-parented
// to the existing order id.
func (o Order) WithImportedFields(src Order) Order {
	out := o
	out.BuyerUsername = src.BuyerUsername
	out.BuyerName = src.BuyerName
	out.BuyerEmail = src.BuyerEmail
	out.TotalPrice = src.TotalPrice
	out.Currency = src.Currency
	out.SaleDate = src.SaleDate
	out.PaidDate = src.PaidDate
	out.ShippedDate = src.ShippedDate
	out.TrackingNumber = src.TrackingNumber
	out.ShippingService = src.ShippingService
	out.ShipTo = src.ShipTo
	out.LineItems = make([]OrderLineItem, len(src.LineItems))
	for i, item := range src.LineItems {
		item.OrderID = o.ID
		out.LineItems[i] = item
	}
	out.UpdatedAt = time.Now()
	return out
}
