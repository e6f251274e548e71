package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Row is one decoded data row. Number is 1-based and contiguous over the
// emitted sequence; no row is emitted twice.
type Row struct {
	Number int
	Values []string
}

// Table is the decoded form of one uploaded export: the header row plus the
// ordered data rows, padded to header width.
type Table struct {
	RawHeaders []string
	Rows       []Row
}

// DecodeTable turns the uploaded bytes into an ordered table. The file
// extension selects the format (.csv or .xlsx). The decoder fails with a
// *FileIntakeError wrapping ErrRowCapExceeded the moment the data row count
// crosses maxRows; a file with exactly maxRows rows succeeds.
func DecodeTable(r io.Reader, fileName string, maxRows int) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return decodeCSV(r, maxRows)
	case ".xlsx":
		return decodeXLSX(r, maxRows)
	default:
		return Table{}, &FileIntakeError{
			Reason: "unrecognized extension " + ext,
			Err:    ErrUnsupportedFormat,
		}
	}
}

func decodeCSV(r io.Reader, maxRows int) (Table, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = buffered.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(buffered)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var table Table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, &FileIntakeError{Reason: "malformed csv", Err: err}
		}

		if isEmptyRow(record) {
			continue
		}

		if table.RawHeaders == nil {
			table.RawHeaders = trimRow(record)
			continue
		}

		if len(table.Rows) >= maxRows {
			return Table{}, &FileIntakeError{
				Reason: fmt.Sprintf("more than %d data rows", maxRows),
				Err:    ErrRowCapExceeded,
			}
		}

		table.Rows = append(table.Rows, Row{
			Number: len(table.Rows) + 1,
			Values: padRow(record, len(table.RawHeaders)),
		})
	}

	return table, nil
}

func decodeXLSX(r io.Reader, maxRows int) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, &FileIntakeError{Reason: "malformed xlsx", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return Table{}, &FileIntakeError{Reason: "failed to read xlsx rows", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var table Table
	for rows.Next() {
		record, colsErr := rows.Columns()
		if colsErr != nil {
			return Table{}, &FileIntakeError{Reason: "failed to read xlsx row", Err: colsErr}
		}

		if isEmptyRow(record) {
			continue
		}

		if table.RawHeaders == nil {
			table.RawHeaders = trimRow(record)
			continue
		}

		if len(table.Rows) >= maxRows {
			return Table{}, &FileIntakeError{
				Reason: fmt.Sprintf("more than %d data rows", maxRows),
				Err:    ErrRowCapExceeded,
			}
		}

		table.Rows = append(table.Rows, Row{
			Number: len(table.Rows) + 1,
			Values: padRow(record, len(table.RawHeaders)),
		})
	}
	return table, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimRow(row []string) []string {
	trimmed := make([]string, len(row))
	for i, cell := range row {
		trimmed[i] = strings.TrimSpace(cell)
	}
	return trimmed
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
