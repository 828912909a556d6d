package pciids

import "github.com/jordanwade90/pcidb"

// Compaction controls how names are turned into database names.
type Compaction struct {
	// Raw keeps vendor and device names as written in pci.ids.
	Raw bool
	// StripVendor removes a leading copy of the vendor's cleaned name
	// from its device names, and of the subvendor's from subsystem names.
	// Ignored when Raw is set.
	StripVendor bool
	// MaxNameLen caps every encoded name. Zero means no cap.
	MaxNameLen int
}

// DefaultCompaction fits names in a length-prefixed string pool.
var DefaultCompaction = Compaction{
	StripVendor: true,
	MaxNameLen:  255,
}

// Registry converts db into a build registry.
// Vendor, device and subsystem names are compacted according to c;
// class, subclass and programming interface names are only encoded.
func (db *Database) Registry(c Compaction) *pcidb.Registry {
	reg := pcidb.NewRegistry()

	vendors := make(map[uint32]string, len(db.Vendors))
	for id, name := range db.Vendors {
		if !c.Raw {
			name = CleanVendor(name)
		}
		vendors[id] = name
		reg.Vendors[id] = Encode(name, c.MaxNameLen)
	}
	prefix := func(vendor uint32) string {
		if c.Raw || !c.StripVendor {
			return ""
		}
		return vendors[vendor]
	}
	device := func(name string, vendor uint32) []byte {
		if !c.Raw {
			name = CleanDevice(name, prefix(vendor))
		}
		return Encode(name, c.MaxNameLen)
	}

	for key, name := range db.Devices {
		reg.Devices[key] = device(name, key>>16)
	}
	for key, subs := range db.Subdevices {
		m := make(map[uint32][]byte, len(subs))
		for sub, name := range subs {
			m[sub] = device(name, sub>>16)
		}
		reg.Subdevices[key] = m
	}

	for id, name := range db.Classes {
		reg.Classes[id] = Encode(name, c.MaxNameLen)
	}
	for id, name := range db.Subclasses {
		reg.Subclasses[id] = Encode(name, c.MaxNameLen)
	}
	for id, name := range db.ProgIfs {
		reg.ProgIfs[id] = Encode(name, c.MaxNameLen)
	}
	return reg
}
