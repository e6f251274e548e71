package importer

import (
	"fmt"
	"math"
	"net/mail"
	"time"
)

// priceTolerance absorbs rounding in exported order totals. A mismatch beyond
// it is a warning, never an error.
const priceTolerance = 0.01

// ApplyListingRules evaluates every listing rule against the record. Rules
// are independent of each other; each one runs even when earlier rules
// already added errors, so a single row can report multiple violations.
func ApplyListingRules(record *ListingRecord, now time.Time) {
	if record.AvailableQuantity != nil && *record.AvailableQuantity < 0 {
		record.addError(fmt.Sprintf("%s: quantity cannot be negative, got %d",
			colAvailableQuantity, *record.AvailableQuantity))
	}

	if record.CurrentPrice != nil && *record.CurrentPrice <= 0 {
		record.addError(fmt.Sprintf("%s: price must be positive, got %.2f",
			colCurrentPrice, *record.CurrentPrice))
	}

	if record.StartDate != nil && record.EndDate != nil && !record.StartDate.Before(*record.EndDate) {
		record.addError(fmt.Sprintf("%s: start date %s is not before end date %s",
			colStartDate,
			record.StartDate.Format("2006-01-02"),
			record.EndDate.Format("2006-01-02")))
	}

	if record.EndDate != nil && record.EndDate.Before(now) {
		record.addWarning(fmt.Sprintf("%s: listing already ended on %s",
			colEndDate, record.EndDate.Format("2006-01-02")))
	}

	if record.SoldQuantity != nil && record.AvailableQuantity != nil &&
		*record.SoldQuantity > 0 && *record.AvailableQuantity == 0 {
		record.addWarning(fmt.Sprintf("%s: %d sold with no available quantity",
			colSoldQuantity, *record.SoldQuantity))
	}
}

// ApplyOrderRules evaluates every order rule against the record.
func ApplyOrderRules(record *OrderRecord) {
	if record.Quantity != nil && *record.Quantity <= 0 {
		record.addError(fmt.Sprintf("%s: quantity must be positive, got %d",
			colQuantity, *record.Quantity))
	}

	if record.UnitPrice != nil && *record.UnitPrice <= 0 {
		record.addError(fmt.Sprintf("%s: unit price must be positive, got %.2f",
			colSoldFor, *record.UnitPrice))
	}

	if record.Quantity != nil && record.UnitPrice != nil && record.TotalPrice != nil {
		expected := *record.UnitPrice * float64(*record.Quantity)
		if math.Abs(*record.TotalPrice-expected) > priceTolerance+1e-9 {
			record.addWarning(fmt.Sprintf("%s: %.2f does not match %s × %s = %.2f",
				colTotalPrice, *record.TotalPrice, colSoldFor, colQuantity, expected))
		}
	}

	if record.BuyerEmail == "" {
		record.addWarning(fmt.Sprintf("%s: no email on record", colBuyerEmail))
	} else if _, err := mail.ParseAddress(record.BuyerEmail); err != nil {
		record.addWarning(fmt.Sprintf("%s: %q is not a valid email address",
			colBuyerEmail, record.BuyerEmail))
	}
}
