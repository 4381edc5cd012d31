package csv

import (
	"encoding/csv"
	"io"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
)

// Reader yields one parsed line per call, lazily, in file order. It is
// forward-only and consumed exactly once, matching the one-pass ingestion
// scan. Quoted fields may contain commas, newlines and doubled quotes.
type Reader struct {
	r    *csv.Reader
	line int
}

func NewReader(in io.Reader) *Reader {
	r := csv.NewReader(in)
	// Column counts are checked per record kind, not by the tokenizer.
	r.FieldsPerRecord = -1
	return &Reader{r: r}
}

// Read returns the next line's fields, io.EOF at end of input, or an
// invalid-csv-file error when the input cannot be tokenized (unterminated
// quoting, stray quotes).
func (r *Reader) Read() ([]string, error) {
	fields, err := r.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, apperror.InvalidCsvFile().WithCause(err)
	}
	r.line, _ = r.r.FieldPos(0)
	return fields, nil
}

// Line reports the physical input line the most recent record started on;
// the header starts on line 1. A quoted field spanning multiple lines
// advances it by more than one.
func (r *Reader) Line() int {
	return r.line
}
