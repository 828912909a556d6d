package pcidb

import (
	"encoding/binary"
	"fmt"
	"github.com/jordanwade90/pcidb/record"
	"os"
	"path/filepath"
)

// Reader resolves identifiers against an encoded database the way the
// firmware consumer does: by scanning each table linearly from a known start
// until a key at least as large as the wanted one.
type Reader struct {
	opts Options
	segs [numSegments][]byte
}

// OpenCombined opens a database in the combined layout.
// The Reader aliases data.
func OpenCombined(data []byte, opts Options) (*Reader, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}

	var offs [numSegments + 1]int
	offs[0] = HeaderSize
	for i := 1; i < numSegments; i++ {
		offs[i] = int(binary.LittleEndian.Uint32(data[4*(i-1):]))
	}
	offs[numSegments] = len(data)

	r := &Reader{opts: opts}
	for i := range r.segs {
		if offs[i+1] < offs[i] || offs[i+1] > len(data) {
			return nil, fmt.Errorf("%w: bad %v segment bounds [%d, %d)", ErrCorrupt, Segments[i], offs[i], offs[i+1])
		}
		r.segs[i] = data[offs[i]:offs[i+1]]
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenSplit opens a database in the split layout, fetching each segment with load.
func OpenSplit(load func(Segment) ([]byte, error), opts Options) (*Reader, error) {
	r := &Reader{opts: opts}
	for _, seg := range Segments {
		b, err := load(seg)
		if err != nil {
			return nil, err
		}
		r.segs[seg] = b
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadSplit opens the split files in dir named from template
// (DefaultSplitTemplate if empty).
func ReadSplit(dir, template string, opts Options) (*Reader, error) {
	if template == "" {
		template = DefaultSplitTemplate
	}
	if err := checkTemplate(template); err != nil {
		return nil, err
	}
	return OpenSplit(func(seg Segment) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, SplitName(template, seg)))
	}, opts)
}

// check verifies every table is a whole number of records ending in a terminator.
func (r *Reader) check() error {
	for _, seg := range Segments[:numTables] {
		layout := seg.Layout()
		b := r.segs[seg]
		if len(b) == 0 || len(b)%layout.Size() != 0 {
			return fmt.Errorf("%w: %v table is %d bytes, not a positive multiple of %d", ErrCorrupt, seg, len(b), layout.Size())
		}
		if key, _ := layout.Decode(b[len(b)-layout.Size():]); key != layout.MaxID() {
			return fmt.Errorf("%w: %v table does not end in a terminator", ErrCorrupt, seg)
		}
	}
	return nil
}

// Records returns the number of records in a table segment.
func (r *Reader) Records(seg Segment) int {
	return len(r.segs[seg]) / seg.Layout().Size()
}

// Walk calls fn for every record of a table segment in file order,
// terminators included, until fn returns false.
func (r *Reader) Walk(seg Segment, fn func(key uint32, refs [record.MaxRefs]uint32) bool) {
	layout := seg.Layout()
	b := r.segs[seg]
	for pos := 0; pos+layout.Size() <= len(b); pos += layout.Size() {
		if !fn(layout.Decode(b[pos:])) {
			return
		}
	}
}

// Name returns the name stored at ref in the string pool.
// An Absent ref yields a nil name and ok set.
func (r *Reader) Name(ref uint32) (name []byte, ok bool) {
	if ref == Absent {
		return nil, true
	}
	return r.opts.Strings.Read(r.segs[SegmentStrings], ref)
}

// index converts a Vendor or Device reference into a record index of seg.
func (r *Reader) index(seg Segment, ref uint32) (int, bool) {
	if ref == Absent {
		return 0, false
	}
	if r.opts.Offsets == RecordIndices {
		return int(ref), true
	}
	size := uint32(seg.Layout().Size())
	if ref%size != 0 {
		return 0, false
	}
	return int(ref / size), true
}

// find scans seg from record start for key.
func (r *Reader) find(seg Segment, start int, key uint32) (refs [record.MaxRefs]uint32, ok bool) {
	layout := seg.Layout()
	b := r.segs[seg]
	for pos := start * layout.Size(); pos >= 0 && pos+layout.Size() <= len(b); pos += layout.Size() {
		var k uint32
		k, refs = layout.Decode(b[pos:])
		if k < key {
			continue
		}
		return refs, k == key && !layout.IsTerminator(k, refs)
	}
	return refs, false
}

func (r *Reader) lookup(seg Segment, start int, key uint32) ([]byte, bool) {
	refs, ok := r.find(seg, start, key)
	if !ok {
		return nil, false
	}
	return r.Name(refs[seg.Layout().Refs-1])
}

// Vendor returns the name of a vendor.
// ok is false when the vendor is not in the database;
// a vendor present without a name yields a nil name and ok set.
func (r *Reader) Vendor(vendor uint16) (name []byte, ok bool) {
	return r.lookup(SegmentVendor, 0, uint32(vendor))
}

func (r *Reader) deviceRefs(vendor, device uint16) (refs [record.MaxRefs]uint32, ok bool) {
	vrefs, ok := r.find(SegmentVendor, 0, uint32(vendor))
	if !ok {
		return refs, false
	}
	start, ok := r.index(SegmentDevice, vrefs[0])
	if !ok {
		return refs, false
	}
	return r.find(SegmentDevice, start, uint32(device))
}

// Device returns the name of a vendor's device.
func (r *Reader) Device(vendor, device uint16) (name []byte, ok bool) {
	refs, ok := r.deviceRefs(vendor, device)
	if !ok {
		return nil, false
	}
	return r.Name(refs[1])
}

// Subdevice returns the name of a device's subsystem.
func (r *Reader) Subdevice(vendor, device, subvendor, subdevice uint16) (name []byte, ok bool) {
	refs, ok := r.deviceRefs(vendor, device)
	if !ok {
		return nil, false
	}
	start, ok := r.index(SegmentSubdevice, refs[0])
	if !ok {
		return nil, false
	}
	return r.lookup(SegmentSubdevice, start, SubdeviceKey(subvendor, subdevice))
}

// Class returns the name of a device class.
func (r *Reader) Class(class uint8) (name []byte, ok bool) {
	return r.lookup(SegmentClass, 0, uint32(class))
}

// Subclass returns the name of a device subclass.
func (r *Reader) Subclass(class, subclass uint8) (name []byte, ok bool) {
	return r.lookup(SegmentSubclass, 0, SubclassKey(class, subclass))
}

// ProgIf returns the name of a programming interface.
func (r *Reader) ProgIf(class, subclass, progif uint8) (name []byte, ok bool) {
	return r.lookup(SegmentProgIf, 0, ProgIfKey(class, subclass, progif))
}
