// Package csv implements the delimited-file side of the ingestion pipeline:
// the record-kind schema registry, a lazy line reader, and the builders that
// turn validated rows into typed candidate records.
package csv

import (
	"fmt"
	"strings"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
)

// Kind tags one of the four supported record kinds. It selects the expected
// header, the column count and the candidate builder.
type Kind string

const (
	KindClient      Kind = "client"
	KindAppointment Kind = "appointment"
	KindPurchase    Kind = "purchase"
	KindService     Kind = "service"
)

// headers is the fixed wire contract: expected column sequence per kind,
// case-sensitive and order-sensitive.
var headers = map[Kind][]string{
	KindClient:      {"id", "first_name", "last_name", "email", "phone", "gender", "banned"},
	KindAppointment: {"id", "client_id", "start_time", "end_time"},
	KindPurchase:    {"id", "appointment_id", "name", "price", "loyalty_points"},
	KindService:     {"id", "appointment_id", "name", "price", "loyalty_points"},
}

// Header returns the expected header for the kind.
func Header(kind Kind) []string {
	return headers[kind]
}

// ColumnCount returns the expected field count per data row for the kind.
func ColumnCount(kind Kind) int {
	return len(headers[kind])
}

// ValidateHeader checks the first line of a file against the kind's expected
// header. A mismatch is a structural file error and aborts the whole request.
func ValidateHeader(fields []string, kind Kind) error {
	expected := headers[kind]
	if len(fields) != len(expected) {
		return apperror.InvalidCsvStructure(fmt.Sprintf(
			"csv header has %d columns, expected %d (%s)",
			len(fields), len(expected), strings.Join(expected, ",")))
	}
	for i, col := range expected {
		if fields[i] != col {
			return apperror.InvalidCsvStructure(fmt.Sprintf(
				"csv header column %d is %q, expected %q", i+1, fields[i], col))
		}
	}
	return nil
}

// ValidateRow checks the field count of a data row. Value-level checks are
// left to the builders and the constraint validator.
func ValidateRow(fields []string, kind Kind, line int) error {
	if len(fields) != ColumnCount(kind) {
		return apperror.InvalidCsvStructure(fmt.Sprintf(
			"line %d has %d fields, expected %d", line, len(fields), ColumnCount(kind)))
	}
	return nil
}
