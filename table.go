package pcidb

import (
	"fmt"
	"github.com/jordanwade90/pcidb/record"
)

// Table accumulates the fixed-width records of one table.
//
// Records are appended in runs of strictly ascending keys.
// Every run, and the table as a whole, ends in exactly one terminator:
// either a real record whose key is the layout's MaxID
// or a synthetic one appended by Terminate.
type Table struct {
	layout  record.Layout
	buf     []byte
	records int

	// last is the key of the most recent record in the open run.
	last       uint32
	inRun      bool
	terminated bool
	finished   bool
}

func newTable(layout record.Layout) *Table {
	return &Table{layout: layout}
}

// Append adds one record to the open run.
// Keys within a run must be strictly ascending.
func (t *Table) Append(key uint32, refs ...uint32) error {
	if t.finished {
		panic("table finished")
	}
	if !t.layout.Fits(key) {
		return fmt.Errorf("%w: %s id %#x exceeds %#x", ErrIdentifierOutOfRange, t.layout.Name, key, t.layout.MaxID())
	}
	if t.inRun && key <= t.last {
		panic(fmt.Sprintf("%s records out of order: %#x after %#x", t.layout.Name, key, t.last))
	}

	t.buf = t.layout.Append(t.buf, key, refs...)
	t.records++
	t.last = key
	t.inRun = true
	t.terminated = key == t.layout.MaxID()
	return nil
}

// Terminate closes the open run,
// appending a synthetic terminator unless the last record already is one.
func (t *Table) Terminate() {
	if t.finished {
		panic("table finished")
	}
	if !t.terminated {
		t.buf = t.layout.Append(t.buf, t.layout.MaxID())
		t.records++
		t.terminated = true
	}
	t.inRun = false
}

func (t *Table) finish() {
	t.Terminate()
	t.finished = true
}

// Layout returns the record layout of the table.
func (t *Table) Layout() record.Layout { return t.layout }

// Len returns the size of the table in bytes, which is also
// the byte offset the next record will be written at.
func (t *Table) Len() int { return len(t.buf) }

// Records returns the number of records written, terminators included.
func (t *Table) Records() int { return t.records }

// Bytes returns the encoded table.
// The result aliases the table's buffer; do not modify it.
func (t *Table) Bytes() []byte { return t.buf }
