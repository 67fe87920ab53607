// Package dataset reads and writes measurement tables: one header line
// followed by comma-separated "load, throughput" rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alexshd/usl"
)

// Header is written as the first line by Write.
const Header = "load, throughput"

// Sentinel errors for this package.
var (
	ErrMalformedRow = errors.New("malformed row")
	ErrEmpty        = errors.New("no measurements")
)

// ParseError locates a malformed row.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Read parses measurements from r. The first line is a header and is
// skipped; blank lines are ignored; extra columns are ignored.
func Read(r io.Reader) ([]usl.Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var ms []usl.Measurement
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %w", ErrMalformedRow, err)}
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}

		m, err := parseRow(rec)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		ms = append(ms, m)
	}

	if len(ms) == 0 {
		return nil, ErrEmpty
	}
	return ms, nil
}

func parseRow(rec []string) (usl.Measurement, error) {
	if len(rec) < 2 {
		return usl.Measurement{}, fmt.Errorf("%w: want 2 columns, got %d", ErrMalformedRow, len(rec))
	}

	load, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	if err != nil {
		return usl.Measurement{}, fmt.Errorf("%w: load: %w", ErrMalformedRow, err)
	}
	throughput, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return usl.Measurement{}, fmt.Errorf("%w: throughput: %w", ErrMalformedRow, err)
	}
	if math.IsNaN(load) || math.IsInf(load, 0) {
		return usl.Measurement{}, fmt.Errorf("%w: load must be finite, got %g", ErrMalformedRow, load)
	}
	if math.IsNaN(throughput) || math.IsInf(throughput, 0) {
		return usl.Measurement{}, fmt.Errorf("%w: throughput must be finite, got %g", ErrMalformedRow, throughput)
	}
	if load <= 0 {
		return usl.Measurement{}, fmt.Errorf("%w: load must be positive, got %g", ErrMalformedRow, load)
	}
	if throughput < 0 {
		return usl.Measurement{}, fmt.Errorf("%w: throughput must not be negative, got %g", ErrMalformedRow, throughput)
	}
	return usl.Measurement{Load: load, Throughput: throughput}, nil
}

// ReadFile opens path and calls Read.
func ReadFile(path string) ([]usl.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ms, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

// Write emits the header and one row per measurement, in order.
func Write(w io.Writer, ms []usl.Measurement) error {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return err
	}
	for _, m := range ms {
		if _, err := fmt.Fprintf(w, "%s, %s\n",
			strconv.FormatFloat(m.Load, 'g', -1, 64),
			strconv.FormatFloat(m.Throughput, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates path and calls Write.
func WriteFile(path string, ms []usl.Measurement) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, ms)
}
