package feed

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/skatteetaten/orderbook/pkg/order"
)

// Reader yields feed events in order. Next returns io.EOF when the feed is exhausted.
type Reader interface {
	Next() (Event, error)
	Version() string
}

// RecordError is a feed line that could not be parsed. Reading can continue past it.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// NewReader reads a feed in the given format
func NewReader(r io.Reader, format Format) (Reader, error) {
	br := bufio.NewReader(r)
	version, consumed, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	firstLine := 1
	if consumed {
		firstLine = 2
	}
	switch format {
	case FormatCSV:
		c := csv.NewReader(br)
		c.Comment = '#'
		c.FieldsPerRecord = -1
		c.TrimLeadingSpace = true
		return &csvReader{csv: c, version: version, offset: firstLine - 1}, nil
	case FormatJSONL:
		s := bufio.NewScanner(br)
		return &jsonlReader{scanner: s, version: version, line: firstLine - 1}, nil
	}
	return nil, errors.Errorf("unknown feed format %q", format)
}

type csvReader struct {
	csv     *csv.Reader
	version string
	offset  int
}

func (r *csvReader) Version() string {
	return r.version
}

func (r *csvReader) Next() (Event, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return Event{}, io.EOF
	}
	if err != nil {
		if pe, ok := err.(*csv.ParseError); ok {
			return Event{}, &RecordError{Line: pe.Line + r.offset, Err: pe.Err}
		}
		return Event{}, errors.Wrap(err, "Failed to read feed")
	}
	line, _ := r.csv.FieldPos(0)
	line += r.offset
	e, err := parseRecord(record)
	if err != nil {
		return Event{}, &RecordError{Line: line, Err: err}
	}
	e.Line = line
	return e, nil
}

// parseRecord reads A,id,price,side,size / R,id / M,id,size
func parseRecord(record []string) (Event, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if len(record) == 0 || record[0] == "" {
		return Event{}, errors.New("empty record")
	}
	var e Event
	var err error
	switch strings.ToUpper(record[0]) {
	case "A":
		if len(record) != 5 {
			return e, errors.Errorf("add needs 5 fields, got %d", len(record))
		}
		e.Action = ActionAdd
		if e.ID, err = parseInt("id", record[1]); err != nil {
			return e, err
		}
		if e.Price, err = strconv.ParseFloat(record[2], 64); err != nil {
			return e, errors.Wrapf(err, "bad price %q", record[2])
		}
		if err = order.CheckPrice(e.Price); err != nil {
			return e, err
		}
		if e.Side, err = order.ParseSideString(record[3]); err != nil {
			return e, err
		}
		if e.Size, err = parseInt("size", record[4]); err != nil {
			return e, err
		}
	case "R":
		if len(record) != 2 {
			return e, errors.Errorf("remove needs 2 fields, got %d", len(record))
		}
		e.Action = ActionRemove
		if e.ID, err = parseInt("id", record[1]); err != nil {
			return e, err
		}
	case "M":
		if len(record) != 3 {
			return e, errors.Errorf("modify needs 3 fields, got %d", len(record))
		}
		e.Action = ActionModify
		if e.ID, err = parseInt("id", record[1]); err != nil {
			return e, err
		}
		if e.Size, err = parseInt("size", record[2]); err != nil {
			return e, err
		}
	default:
		return e, errors.Errorf("unknown action %q", record[0])
	}
	return e, nil
}

func parseInt(field string, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad %s %q", field, value)
	}
	return n, nil
}

type jsonlReader struct {
	scanner *bufio.Scanner
	version string
	line    int
}

func (r *jsonlReader) Version() string {
	return r.version
}

func (r *jsonlReader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return Event{}, &RecordError{Line: r.line, Err: err}
		}
		switch e.Action {
		case ActionAdd:
			if err := order.CheckPrice(e.Price); err != nil {
				return Event{}, &RecordError{Line: r.line, Err: err}
			}
		case ActionRemove, ActionModify:
		default:
			return Event{}, &RecordError{Line: r.line, Err: errors.Errorf("unknown action %q", e.Action)}
		}
		e.Line = r.line
		return e, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, errors.Wrap(err, "Failed to read feed")
	}
	return Event{}, io.EOF
}
