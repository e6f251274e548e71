package importer

import (
	"strings"

	"github.com/sellerbridge/marketsync/internal/domain"
)

// Column names as they appear in the marketplace export headers.
const (
	colItemNumber        = "Item number"
	colTitle             = "Title"
	colSKU               = "Custom label (SKU)"
	colAvailableQuantity = "Available quantity"
	colSoldQuantity      = "Sold quantity"
	colCurrentPrice      = "Current price"
	colCurrency          = "Currency"
	colStartDate         = "Start date"
	colEndDate           = "End date"
	colCategory          = "Category"
	colCondition         = "Condition"
	colFormat            = "Format"

	colOrderNumber     = "Order number"
	colBuyerUsername   = "Buyer username"
	colBuyerName       = "Buyer name"
	colBuyerEmail      = "Buyer email"
	colItemTitle       = "Item title"
	colQuantity        = "Quantity"
	colSoldFor         = "Sold for"
	colTotalPrice      = "Total price"
	colSaleDate        = "Sale date"
	colPaidDate        = "Paid on date"
	colShippedDate     = "Shipped on date"
	colTrackingNumber  = "Tracking number"
	colShippingService = "Shipping service"
	colShipToName      = "Ship to name"
	colShipToAddress1  = "Ship to address 1"
	colShipToAddress2  = "Ship to address 2"
	colShipToCity      = "Ship to city"
	colShipToState     = "Ship to state"
	colShipToZip       = "Ship to zip"
	colShipToCountry   = "Ship to country"
)

// ColumnSpec declares one column of an export contract.
type ColumnSpec struct {
	Name     string
	Required bool
}

// Contract is the declared column set for one record type.
type Contract struct {
	RecordType domain.RecordType
	Columns    []ColumnSpec
}

// RequiredColumns returns the names of all required columns.
func (c Contract) RequiredColumns() []string {
	var names []string
	for _, col := range c.Columns {
		if col.Required {
			names = append(names, col.Name)
		}
	}
	return names
}

var listingContract = Contract{
	RecordType: domain.RecordTypeListing,
	Columns: []ColumnSpec{
		{Name: colItemNumber, Required: true},
		{Name: colTitle, Required: true},
		{Name: colSKU},
		{Name: colAvailableQuantity, Required: true},
		{Name: colSoldQuantity},
		{Name: colCurrentPrice, Required: true},
		{Name: colCurrency},
		{Name: colStartDate, Required: true},
		{Name: colEndDate, Required: true},
		{Name: colCategory, Required: true},
		{Name: colCondition},
		{Name: colFormat},
	},
}

var orderContract = Contract{
	RecordType: domain.RecordTypeOrder,
	Columns: []ColumnSpec{
		{Name: colOrderNumber, Required: true},
		{Name: colBuyerUsername, Required: true},
		{Name: colBuyerName},
		{Name: colBuyerEmail, Required: true},
		{Name: colItemNumber, Required: true},
		{Name: colItemTitle},
		{Name: colQuantity, Required: true},
		{Name: colSoldFor, Required: true},
		{Name: colTotalPrice, Required: true},
		{Name: colCurrency},
		{Name: colSaleDate, Required: true},
		{Name: colPaidDate},
		{Name: colShippedDate},
		{Name: colTrackingNumber},
		{Name: colShippingService},
		{Name: colShipToName},
		{Name: colShipToAddress1},
		{Name: colShipToAddress2},
		{Name: colShipToCity},
		{Name: colShipToState},
		{Name: colShipToZip},
		{Name: colShipToCountry},
	},
}

// ContractFor resolves the column contract for a record type.
func ContractFor(recordType domain.RecordType) (Contract, bool) {
	switch recordType {
	case domain.RecordTypeListing:
		return listingContract, true
	case domain.RecordTypeOrder:
		return orderContract, true
	default:
		return Contract{}, false
	}
}

// HeaderReport is the result of checking a decoded header against a contract.
type HeaderReport struct {
	IsValid bool     `json:"isValid"`
	Missing []string `json:"missing"`
	Extra   []string `json:"extra"`
}

// headerIndex maps canonical (lowercased, trimmed) column names to their
// position in the decoded row.
type headerIndex map[string]int

func makeHeaderIndex(headers []string) headerIndex {
	idx := make(headerIndex, len(headers))
	for i, name := range headers {
		key := canonicalColumn(name)
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

func canonicalColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CheckHeader verifies the decoded header set contains every required column
// of the contract. Extra columns are tolerated and reported for visibility.
// An empty header set is never valid.
func CheckHeader(headers []string, contract Contract) HeaderReport {
	report := HeaderReport{Missing: []string{}, Extra: []string{}}

	if len(headers) == 0 {
		return report
	}

	idx := makeHeaderIndex(headers)
	known := make(map[string]struct{}, len(contract.Columns))
	for _, col := range contract.Columns {
		known[canonicalColumn(col.Name)] = struct{}{}
		if !col.Required {
			continue
		}
		if _, ok := idx[canonicalColumn(col.Name)]; !ok {
			report.Missing = append(report.Missing, col.Name)
		}
	}

	for _, name := range headers {
		key := canonicalColumn(name)
		if key == "" {
			continue
		}
		if _, ok := known[key]; !ok {
			report.Extra = append(report.Extra, strings.TrimSpace(name))
		}
	}

	report.IsValid = len(report.Missing) == 0
	return report
}
