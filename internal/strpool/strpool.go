// Package strpool builds the deduplicated string pool referenced by the tables.
package strpool

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/jordanwade90/pcidb/record"
	"math"
)

var (
	// ErrNameTooLong is returned for names longer than the pool format can store.
	ErrNameTooLong = errors.New("name too long")
	// ErrInvalidName is returned for names the pool format cannot represent.
	ErrInvalidName = errors.New("invalid name")
)

// Pool is an append-only string pool.
// Offsets are assigned at first insertion and never change.
type Pool struct {
	format  record.StringFormat
	data    []byte
	offsets map[string]uint32
}

// New returns an empty Pool storing names in format.
func New(format record.StringFormat) *Pool {
	return &Pool{
		format:  format,
		offsets: make(map[string]uint32),
	}
}

// Intern returns the offset of name in the pool, storing it if it is new.
// The empty name is never stored; it resolves to record.Absent.
func (p *Pool) Intern(name []byte) (uint32, error) {
	if len(name) == 0 {
		return record.Absent, nil
	}
	if off, ok := p.offsets[string(name)]; ok {
		return off, nil
	}

	if len(name) > p.format.MaxLen() {
		return 0, fmt.Errorf("%w: %d bytes, %s pool holds at most %d", ErrNameTooLong, len(name), p.format, p.format.MaxLen())
	}
	if p.format == record.NULTerminated && bytes.IndexByte(name, 0) >= 0 {
		return 0, fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	if uint64(len(p.data)) >= math.MaxUint32 {
		panic("string pool too large")
	}

	off := uint32(len(p.data))
	p.data = p.format.Append(p.data, name)
	p.offsets[string(name)] = off
	return off, nil
}

// Format returns the storage format of the pool.
func (p *Pool) Format() record.StringFormat { return p.format }

// Count returns the number of distinct names stored.
func (p *Pool) Count() int { return len(p.offsets) }

// Len returns the size of the pool in bytes.
func (p *Pool) Len() int { return len(p.data) }

// Bytes returns the pool contents.
// The result aliases the pool's buffer; do not modify it.
func (p *Pool) Bytes() []byte { return p.data }
