package importer

import "time"

// RowMessage is one row-addressable finding. RowNumber always reflects
// original file order.
type RowMessage struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// Summary breaks down the fate of every record the reconciliation engine saw.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ProcessingResult is the aggregate outcome of one run, returned to the
// caller and immutable after the run finishes.
//
// Invariant: ValidRecords + InvalidRecords == TotalRecords.
type ProcessingResult struct {
	TotalRecords     int          `json:"totalRecords"`
	ValidRecords     int          `json:"validRecords"`
	InvalidRecords   int          `json:"invalidRecords"`
	ProcessedRecords int          `json:"processedRecords"`
	Duplicates       int          `json:"duplicates"`
	Summary          Summary      `json:"summary"`
	Errors           []RowMessage `json:"errors"`
	Warnings         []RowMessage `json:"warnings"`
}

func (r *ProcessingResult) addError(row int, message string) {
	r.Errors = append(r.Errors, RowMessage{RowNumber: row, Message: message})
}

func (r *ProcessingResult) addWarning(row int, message string) {
	r.Warnings = append(r.Warnings, RowMessage{RowNumber: row, Message: message})
}

// ListingRecord is a listing row after coercion and business rules. A record
// with a non-empty Errors list is never persisted.
type ListingRecord struct {
	RowNumber         int
	ItemNumber        string
	Title             string
	SKU               string
	AvailableQuantity *int
	SoldQuantity      *int
	CurrentPrice      *float64
	Currency          string
	StartDate         *time.Time
	EndDate           *time.Time
	Category          string
	Condition         string
	Format            string
	Errors            []string
	Warnings          []string
}

// OrderRecord is an order row after coercion and business rules.
type OrderRecord struct {
	RowNumber        int
	ExternalOrderID  string
	BuyerUsername    string
	BuyerName        string
	BuyerEmail       string
	ItemNumber       string
	ItemTitle        string
	Quantity         *int
	UnitPrice        *float64
	TotalPrice       *float64
	Currency         string
	SaleDate         *time.Time
	PaidDate         *time.Time
	ShippedDate      *time.Time
	TrackingNumber   string
	ShippingService  string
	ShipToName       string
	ShipToAddress1   string
	ShipToAddress2   string
	ShipToCity       string
	ShipToState      string
	ShipToPostalCode string
	ShipToCountry    string
	Errors           []string
	Warnings         []string
}

func (r *ListingRecord) addError(message string)   { r.Errors = append(r.Errors, message) }
func (r *ListingRecord) addWarning(message string) { r.Warnings = append(r.Warnings, message) }
func (r *OrderRecord) addError(message string)     { r.Errors = append(r.Errors, message) }
func (r *OrderRecord) addWarning(message string)   { r.Warnings = append(r.Warnings, message) }
