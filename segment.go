package pcidb

import (
	"fmt"
	"github.com/jordanwade90/pcidb/record"
)

// Segment identifies one table or the string pool.
// Segments are numbered in canonical file order.
type Segment int

const (
	SegmentVendor Segment = iota
	SegmentDevice
	SegmentSubdevice
	SegmentClass
	SegmentSubclass
	SegmentProgIf
	SegmentStrings

	numSegments = iota
	numTables   = numSegments - 1
)

// Segments lists every segment in canonical order.
var Segments = [numSegments]Segment{
	SegmentVendor, SegmentDevice, SegmentSubdevice,
	SegmentClass, SegmentSubclass, SegmentProgIf,
	SegmentStrings,
}

var segmentLayouts = [numTables]record.Layout{
	record.Vendor, record.Device, record.Subdevice,
	record.Class, record.Subclass, record.ProgIf,
}

// Letter returns the character identifying the segment in split file names.
func (s Segment) Letter() byte {
	return "VDSCUPT"[s]
}

// IsTable reports whether the segment holds fixed-width records.
func (s Segment) IsTable() bool {
	return s >= SegmentVendor && s < SegmentStrings
}

// Layout returns the record layout of a table segment.
func (s Segment) Layout() record.Layout {
	if !s.IsTable() {
		panic(fmt.Sprintf("%v has no record layout", s))
	}
	return segmentLayouts[s]
}

func (s Segment) String() string {
	switch {
	case s.IsTable():
		return segmentLayouts[s].Name
	case s == SegmentStrings:
		return "strings"
	default:
		return fmt.Sprintf("Segment(%d)", int(s))
	}
}
