package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a marketplace listing persisted per account. The natural key is
// (ItemNumber, AccountID); the pipeline never deletes listings outside an
// explicit purge.
type Listing struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	ItemNumber        string     `json:"item_number"`
	Title             string     `json:"title"`
	SKU               string     `json:"sku"`
	AvailableQuantity int        `json:"available_quantity"`
	SoldQuantity      int        `json:"sold_quantity"`
	CurrentPrice      float64    `json:"current_price"`
	Currency          string     `json:"currency"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Category          string     `json:"category"`
	Condition         string     `json:"condition"`
	Format            string     `json:"format"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewListing creates a listing keyed to an account and item number.
func NewListing(accountID uuid.UUID, itemNumber string) Listing {
	now := time.Now()
	return Listing{
		ID:         uuid.New(),
		AccountID:  accountID,
		ItemNumber: itemNumber,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithImportedFields returns a copy with the mutable fields replaced by the
// incoming record's values. Identity and natural key are preserved.
func (l Listing) WithImportedFields(src Listing) Listing {
	out := l
	out.Title = src.Title
	out.SKU = src.SKU
	out.AvailableQuantity = src.AvailableQuantity
	out.SoldQuantity = src.SoldQuantity
	out.CurrentPrice = src.CurrentPrice
	out.Currency = src.Currency
	out.StartDate = src.StartDate
	out.EndDate = src.EndDate
	out.Category = src.Category
	out.Condition = src.Condition
	out.Format = src.Format
	out.UpdatedAt = time.Now()
	return out
}
