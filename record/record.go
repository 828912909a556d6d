// Package record describes the fixed-width records of the binary PCI ID
// database and the formats its string pool may be stored in.
//
// All multi-byte fields are little-endian.
// Composite identifiers are carried as a single key
// whose most significant field is written first,
// e.g. a progif key 0x010601 is written as the bytes 01 06 01.
package record

import (
	"encoding/binary"
	"golang.org/x/exp/constraints"
)

// Absent is the reference value meaning "no offset here".
const Absent uint32 = 0xFFFFFFFF

// MaxRefs is the largest number of reference fields any layout carries.
const MaxRefs = 2

const refSize = 4

// Layout describes one table's record.
type Layout struct {
	Name string
	// IDWidths lists the byte width of each identifier field,
	// most significant first.
	IDWidths []int
	// Refs is the number of trailing u32 reference fields.
	Refs int
}

// The six table layouts, in canonical file order.
var (
	Vendor    = Layout{Name: "vendor", IDWidths: []int{2}, Refs: 2}
	Device    = Layout{Name: "device", IDWidths: []int{2}, Refs: 2}
	Subdevice = Layout{Name: "subdevice", IDWidths: []int{2, 2}, Refs: 1}
	Class     = Layout{Name: "class", IDWidths: []int{1}, Refs: 1}
	Subclass  = Layout{Name: "subclass", IDWidths: []int{1, 1}, Refs: 1}
	ProgIf    = Layout{Name: "progif", IDWidths: []int{1, 1, 1}, Refs: 1}
)

// IDSize returns the total width of the identifier fields.
func (l Layout) IDSize() int {
	n := 0
	for _, w := range l.IDWidths {
		n += w
	}
	return n
}

// Size returns the width of one record.
func (l Layout) Size() int {
	return l.IDSize() + l.Refs*refSize
}

// MaxID returns the largest key the identifier fields can hold.
// A record with this key terminates the table.
func (l Layout) MaxID() uint32 {
	return uint32(uint64(1)<<(8*l.IDSize()) - 1)
}

// Fits reports whether key can be stored in the identifier fields.
func (l Layout) Fits(key uint32) bool {
	return uint64(key) <= uint64(l.MaxID())
}

// Append appends one record to buf.
// Missing trailing refs are written as Absent; extra refs are ignored.
// The caller must check Fits first; excess key bits are discarded.
func (l Layout) Append(buf []byte, key uint32, refs ...uint32) []byte {
	shift := 8 * l.IDSize()
	for _, w := range l.IDWidths {
		shift -= 8 * w
		buf = appendUint(buf, w, uint64(key)>>shift)
	}
	for i := 0; i < l.Refs; i++ {
		ref := Absent
		if i < len(refs) {
			ref = refs[i]
		}
		buf = binary.LittleEndian.AppendUint32(buf, ref)
	}
	return buf
}

// Decode splits rec, which must be at least Size bytes, into its key and references.
// Unused entries of refs are Absent.
func (l Layout) Decode(rec []byte) (key uint32, refs [MaxRefs]uint32) {
	pos := 0
	for _, w := range l.IDWidths {
		key = key<<(8*w) | uintAt[uint32](rec[pos:], w)
		pos += w
	}
	for i := range refs {
		refs[i] = Absent
		if i < l.Refs {
			refs[i] = binary.LittleEndian.Uint32(rec[pos:])
			pos += refSize
		}
	}
	return key, refs
}

// IsTerminator reports whether a decoded record is the synthetic end-of-table record.
func (l Layout) IsTerminator(key uint32, refs [MaxRefs]uint32) bool {
	if key != l.MaxID() {
		return false
	}
	for _, ref := range refs {
		if ref != Absent {
			return false
		}
	}
	return true
}

func appendUint[T constraints.Unsigned](buf []byte, width int, x T) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(uint64(x)>>(8*i)))
	}
	return buf
}

func uintAt[T constraints.Unsigned](buf []byte, width int) T {
	var x T
	for i := width - 1; i >= 0; i-- {
		x = x<<8 | T(buf[i])
	}
	return x
}
