package importer

import (
	"github.com/sellerbridge/marketsync/internal/domain"

	"github.com/google/uuid"
)

// ToDomain maps an error-free listing record into the persisted shape. Pure
// renaming; validation already happened upstream.
func (r ListingRecord) ToDomain(accountID uuid.UUID) domain.Listing {
	listing := domain.NewListing(accountID, r.ItemNumber)
	listing.Title = r.Title
	listing.SKU = r.SKU
	if r.AvailableQuantity != nil {
		listing.AvailableQuantity = *r.AvailableQuantity
	}
	if r.SoldQuantity != nil {
		listing.SoldQuantity = *r.SoldQuantity
	}
	if r.CurrentPrice != nil {
		listing.CurrentPrice = *r.CurrentPrice
	}
	listing.Currency = r.Currency
	listing.StartDate = r.StartDate
	listing.EndDate = r.EndDate
	listing.Category = r.Category
	listing.Condition = r.Condition
	listing.Format = r.Format
	return listing
}

// ToDomain maps an error-free order record into the persisted shape,
// grouping the flat ship-to columns into the order's shipping address.
func (r OrderRecord) ToDomain(accountID uuid.UUID) domain.Order {
	order := domain.NewOrder(accountID, r.ExternalOrderID)
	order.BuyerUsername = r.BuyerUsername
	order.BuyerName = r.BuyerName
	order.BuyerEmail = r.BuyerEmail
	if r.TotalPrice != nil {
		order.TotalPrice = *r.TotalPrice
	}
	order.Currency = r.Currency
	order.SaleDate = r.SaleDate
	order.PaidDate = r.PaidDate
	order.ShippedDate = r.ShippedDate
	order.TrackingNumber = r.TrackingNumber
	order.ShippingService = r.ShippingService
	order.ShipTo = domain.ShippingAddress{
		Name:       r.ShipToName,
		Line1:      r.ShipToAddress1,
		Line2:      r.ShipToAddress2,
		City:       r.ShipToCity,
		State:      r.ShipToState,
		PostalCode: r.ShipToPostalCode,
		Country:    r.ShipToCountry,
	}

	item := domain.NewOrderLineItem(order.ID, r.ItemNumber)
	item.Title = r.ItemTitle
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.UnitPrice != nil {
		item.UnitPrice = *r.UnitPrice
	}
	order.LineItems = []domain.OrderLineItem{item}

	return order
}
