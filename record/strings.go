package record

import (
	"bytes"
	"fmt"
)

// StringFormat selects how names are stored in the string pool.
type StringFormat int

const (
	// LengthPrefixed stores one length byte followed by the name.
	LengthPrefixed StringFormat = iota
	// NULTerminated stores the name followed by a zero byte.
	NULTerminated
)

// MaxLen returns the longest name the format can store.
func (f StringFormat) MaxLen() int {
	if f == NULTerminated {
		return 256
	}
	return 255
}

// Append appends name in this format to buf.
// The caller must check the name against MaxLen.
func (f StringFormat) Append(buf, name []byte) []byte {
	if f == NULTerminated {
		buf = append(buf, name...)
		return append(buf, 0)
	}
	buf = append(buf, byte(len(name)))
	return append(buf, name...)
}

// Read returns the name stored at off in pool.
func (f StringFormat) Read(pool []byte, off uint32) (name []byte, ok bool) {
	if uint64(off) >= uint64(len(pool)) {
		return nil, false
	}
	s := pool[off:]
	if f == NULTerminated {
		end := bytes.IndexByte(s, 0)
		if end < 0 {
			return nil, false
		}
		return s[:end], true
	}
	n := int(s[0])
	if 1+n > len(s) {
		return nil, false
	}
	return s[1 : 1+n], true
}

func (f StringFormat) String() string {
	switch f {
	case LengthPrefixed:
		return "length-prefixed"
	case NULTerminated:
		return "nul-terminated"
	default:
		return fmt.Sprintf("StringFormat(%d)", int(f))
	}
}
