package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the vendor's known export formats. Parsing fails explicitly
// rather than defaulting.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"Jan-02-06",
	"Jan-2-06",
	"Jan-02-2006",
	"01/02/2006",
	"01/02/2006 15:04:05",
	time.RFC3339,
}

// fieldReader reads one row through a header index. Empty cells read as
// absent, never as zero values.
type fieldReader struct {
	row Row
	idx headerIndex
}

func (f fieldReader) raw(column string) (string, bool) {
	pos, ok := f.idx[canonicalColumn(column)]
	if !ok || pos >= len(f.row.Values) {
		return "", false
	}
	value := strings.TrimSpace(f.row.Values[pos])
	if value == "" {
		return "", false
	}
	return value, true
}

func (f fieldReader) text(column string) string {
	value, _ := f.raw(column)
	return value
}

// intField coerces an integer column. A coercion failure on a required field
// appends to errs and the field stays absent; the row keeps processing so all
// errors are collected in one pass.
func (f fieldReader) intField(column string, required bool, errs *[]string) *int {
	raw, ok := f.raw(column)
	if !ok {
		if required {
			*errs = append(*errs, fmt.Sprintf("%s: required value is missing", column))
		}
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a whole number", column, raw))
		return nil
	}
	return &value
}

// decimalField coerces a decimal column with a locale-invariant decimal
// point. Currency symbols and thousands separators the vendor emits are
// stripped before parsing.
func (f fieldReader) decimalField(column string, required bool, errs *[]string) *float64 {
	raw, ok := f.raw(column)
	if !ok {
		if required {
			*errs = append(*errs, fmt.Sprintf("%s: required value is missing", column))
		}
		return nil
	}
	cleaned := strings.NewReplacer("$", "", "£", "", "€", "", ",", "").Replace(raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a number", column, raw))
		return nil
	}
	return &value
}

func (f fieldReader) dateField(column string, required bool, errs *[]string) *time.Time {
	raw, ok := f.raw(column)
	if !ok {
		if required {
			*errs = append(*errs, fmt.Sprintf("%s: required value is missing", column))
		}
		return nil
	}
	value, err := parseDate(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a recognized date", column, raw))
		return nil
	}
	return &value
}

func (f fieldReader) textField(column string, required bool, errs *[]string) string {
	raw, ok := f.raw(column)
	if !ok && required {
		*errs = append(*errs, fmt.Sprintf("%s: required value is missing", column))
	}
	return raw
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// ValidateListingRow coerces one raw listing row into a typed record,
// collecting every field error without failing fast.
func ValidateListingRow(row Row, idx headerIndex) ListingRecord {
	f := fieldReader{row: row, idx: idx}
	record := ListingRecord{RowNumber: row.Number}

	record.ItemNumber = f.textField(colItemNumber, true, &record.Errors)
	record.Title = f.textField(colTitle, true, &record.Errors)
	record.SKU = f.text(colSKU)
	record.AvailableQuantity = f.intField(colAvailableQuantity, true, &record.Errors)
	record.SoldQuantity = f.intField(colSoldQuantity, false, &record.Errors)
	record.CurrentPrice = f.decimalField(colCurrentPrice, true, &record.Errors)
	record.Currency = f.text(colCurrency)
	record.StartDate = f.dateField(colStartDate, true, &record.Errors)
	record.EndDate = f.dateField(colEndDate, true, &record.Errors)
	record.Category = f.textField(colCategory, true, &record.Errors)
	record.Condition = f.text(colCondition)
	record.Format = f.text(colFormat)

	return record
}

// ValidateOrderRow coerces one raw order row into a typed record, collecting
// every field error without failing fast.
func ValidateOrderRow(row Row, idx headerIndex) OrderRecord {
	f := fieldReader{row: row, idx: idx}
	record := OrderRecord{RowNumber: row.Number}

	record.ExternalOrderID = f.textField(colOrderNumber, true, &record.Errors)
	record.BuyerUsername = f.textField(colBuyerUsername, true, &record.Errors)
	record.BuyerName = f.text(colBuyerName)
	record.BuyerEmail = f.text(colBuyerEmail)
	record.ItemNumber = f.textField(colItemNumber, true, &record.Errors)
	record.ItemTitle = f.text(colItemTitle)
	record.Quantity = f.intField(colQuantity, true, &record.Errors)
	record.UnitPrice = f.decimalField(colSoldFor, true, &record.Errors)
	record.TotalPrice = f.decimalField(colTotalPrice, true, &record.Errors)
	record.Currency = f.text(colCurrency)
	record.SaleDate = f.dateField(colSaleDate, true, &record.Errors)
	record.PaidDate = f.dateField(colPaidDate, false, &record.Errors)
	record.ShippedDate = f.dateField(colShippedDate, false, &record.Errors)
	record.TrackingNumber = f.text(colTrackingNumber)
	record.ShippingService = f.text(colShippingService)
	record.ShipToName = f.text(colShipToName)
	record.ShipToAddress1 = f.text(colShipToAddress1)
	record.ShipToAddress2 = f.text(colShipToAddress2)
	record.ShipToCity = f.text(colShipToCity)
	record.ShipToState = f.text(colShipToState)
	record.ShipToPostalCode = f.text(colShipToZip)
	record.ShipToCountry = f.text(colShipToCountry)

	return record
}
