package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMalformedTable is returned by ReadCSV for rows that do not parse.
var ErrMalformedTable = errors.New("malformed profile table")

// Header is the column row of a profile table.
var Header = []string{"Direction", "Sub-Direction", "Distance", "LST Value"}

// WriteCSV writes records as a comma-separated table with Header first.
// Values are formatted with the shortest representation that round-trips at
// the given bit size: 32 for float32 rasters, 64 for everything else.
func WriteCSV(w io.Writer, records []Record, bitSize int) error {
	if bitSize != 32 {
		bitSize = 64
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(Header))
	for _, rec := range records {
		row[0] = rec.Axis
		row[1] = rec.SubDirection
		row[2] = strconv.Itoa(rec.Distance)
		row[3] = strconv.FormatFloat(rec.Value, 'f', -1, bitSize)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

// ReadCSV parses a table produced by WriteCSV. bitSize must match the one the
// table was written with so float32 values come back exactly. Row and Col are
// not part of the table and are left zero.
func ReadCSV(r io.Reader, bitSize int) ([]Record, error) {
	if bitSize != 32 {
		bitSize = 64
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformedTable, i+1, head[i], name)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		dist, err := strconv.Atoi(row[2])
		if err != nil || dist < 0 {
			return nil, fmt.Errorf("%w: line %d: bad distance %q", ErrMalformedTable, line, row[2])
		}
		val, err := strconv.ParseFloat(row[3], bitSize)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad value %q", ErrMalformedTable, line, row[3])
		}
		out = append(out, Record{Axis: row[0], SubDirection: row[1], Distance: dist, Value: val})
	}
	return out, nil
}
