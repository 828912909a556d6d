package pcidb

import (
	"fmt"
	"github.com/jordanwade90/pcidb/internal/strpool"
	"github.com/jordanwade90/pcidb/record"
	"golang.org/x/exp/constraints"
	"slices"
)

// Absent is the reference value meaning "no offset here".
// Offset 0 is a valid position and never means absent.
const Absent = record.Absent

// OffsetUnit selects how Vendor and Device records address the table they point into.
type OffsetUnit int

const (
	// ByteOffsets stores the byte offset from the start of the referenced table.
	ByteOffsets OffsetUnit = iota
	// RecordIndices stores the index of the referenced record,
	// i.e. the byte offset divided by the record size.
	RecordIndices
)

func (u OffsetUnit) String() string {
	switch u {
	case ByteOffsets:
		return "bytes"
	case RecordIndices:
		return "records"
	default:
		return fmt.Sprintf("OffsetUnit(%d)", int(u))
	}
}

// Options control the encoding of a Database.
type Options struct {
	// Strings selects the string pool format.
	Strings record.StringFormat
	// Offsets selects the unit of the cross-table references.
	// String references are always byte offsets into the pool.
	Offsets OffsetUnit
}

// DefaultOptions are the default encoding options.
var DefaultOptions = Options{
	Strings: record.LengthPrefixed,
	Offsets: ByteOffsets,
}

// Database is a fully encoded set of tables and their string pool.
// It is immutable once Build returns.
type Database struct {
	opts   Options
	tables [numTables]*Table
	pool   *strpool.Pool
}

// Build encodes reg.
// Any error aborts the build; no partial Database is returned.
func Build(reg *Registry, opts Options) (*Database, error) {
	db := &Database{
		opts: opts,
		pool: strpool.New(opts.Strings),
	}
	for i := range db.tables {
		db.tables[i] = newTable(segmentLayouts[i])
	}

	if err := db.buildVendors(reg); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		seg   Segment
		names map[uint32][]byte
	}{
		{SegmentClass, reg.Classes},
		{SegmentSubclass, reg.Subclasses},
		{SegmentProgIf, reg.ProgIfs},
	} {
		if err := db.buildNames(c.seg, c.names); err != nil {
			return nil, err
		}
	}

	for _, t := range db.tables {
		t.finish()
	}
	return db, nil
}

// buildVendors encodes the linked Vendor, Device and Subdevice tables.
//
// Devices are walked in (vendor, device) order. Each vendor's devices form one
// run of the Device table and each device's subdevices one run of the
// Subdevice table. The Vendor table is written last, once every vendor's
// device run start is known.
func (db *Database) buildVendors(reg *Registry) error {
	devices := db.tables[SegmentDevice]
	subdevices := db.tables[SegmentSubdevice]

	// deviceStart holds each vendor's device run start, or Absent for
	// vendors only seen as a subvendor.
	deviceStart := make(map[uint32]uint32)

	keys := sortedKeys(reg.Devices)
	for key, subs := range reg.Subdevices {
		if _, ok := reg.Devices[key]; !ok && len(subs) > 0 {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	var vendor uint32
	started := false
	for _, key := range keys {
		if v := key >> 16; !started || v != vendor {
			if started {
				devices.Terminate()
			}
			deviceStart[v] = db.offset(devices)
			vendor, started = v, true
		}

		subRef := Absent
		if subs := reg.Subdevices[key]; len(subs) > 0 {
			subRef = db.offset(subdevices)
			for _, sub := range sortedKeys(subs) {
				if _, ok := deviceStart[sub>>16]; !ok {
					deviceStart[sub>>16] = Absent
				}
				name, err := db.intern(subs[sub])
				if err != nil {
					return fmt.Errorf("subdevice %08x %08x: %w", key, sub, err)
				}
				if err := subdevices.Append(sub, name); err != nil {
					return err
				}
			}
			subdevices.Terminate()
		}

		name, err := db.intern(reg.Devices[key])
		if err != nil {
			return fmt.Errorf("device %08x: %w", key, err)
		}
		if err := devices.Append(key&0xFFFF, subRef, name); err != nil {
			return err
		}
	}

	ids := sortedKeys(deviceStart)
	for id := range reg.Vendors {
		if _, ok := deviceStart[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	vendors := db.tables[SegmentVendor]
	for _, id := range ids {
		if !vendors.layout.Fits(id) {
			return fmt.Errorf("%w: vendor id %#x exceeds %#x", ErrIdentifierOutOfRange, id, vendors.layout.MaxID())
		}
		name, err := db.intern(reg.Vendors[id])
		if err != nil {
			return fmt.Errorf("vendor %04x: %w", id, err)
		}
		start, ok := deviceStart[id]
		if !ok {
			start = Absent
		}
		if start == Absent && name == Absent {
			continue
		}
		if err := vendors.Append(id, start, name); err != nil {
			return err
		}
	}
	return nil
}

// buildNames encodes a table whose records carry only a name.
func (db *Database) buildNames(seg Segment, names map[uint32][]byte) error {
	t := db.tables[seg]
	for _, key := range sortedKeys(names) {
		if !t.layout.Fits(key) {
			return fmt.Errorf("%w: %s id %#x exceeds %#x", ErrIdentifierOutOfRange, seg, key, t.layout.MaxID())
		}
		name, err := db.intern(names[key])
		if err != nil {
			return fmt.Errorf("%s %#x: %w", seg, key, err)
		}
		if err := t.Append(key, name); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) intern(name []byte) (uint32, error) {
	return db.pool.Intern(name)
}

// offset returns the reference to the next record of t.
func (db *Database) offset(t *Table) uint32 {
	if db.opts.Offsets == RecordIndices {
		return uint32(t.Records())
	}
	return uint32(t.Len())
}

// Options returns the options the database was encoded with.
func (db *Database) Options() Options { return db.opts }

// Table returns the table stored in a table segment.
func (db *Database) Table(seg Segment) *Table {
	if !seg.IsTable() {
		panic(fmt.Sprintf("%v is not a table", seg))
	}
	return db.tables[seg]
}

// Segment returns the encoded bytes of seg.
func (db *Database) Segment(seg Segment) []byte {
	if seg == SegmentStrings {
		return db.pool.Bytes()
	}
	return db.Table(seg).Bytes()
}

// Names returns the number of distinct names in the string pool.
func (db *Database) Names() int { return db.pool.Count() }

func sortedKeys[K constraints.Unsigned, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
