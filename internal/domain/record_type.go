package domain

import "fmt"

// RecordType identifies which export contract an uploaded file declares.
type RecordType string

const (
	RecordTypeListing RecordType = "listing"
	RecordTypeOrder   RecordType = "order"
)

// ParseRecordType validates a caller-supplied record type string.
func ParseRecordType(raw string) (RecordType, error) {
	switch RecordType(raw) {
	case RecordTypeListing:
		return RecordTypeListing, nil
	case RecordTypeOrder:
		return RecordTypeOrder, nil
	default:
		return "", fmt.Errorf("unknown record type %q", raw)
	}
}

func (t RecordType) String() string {
	return string(t)
}
