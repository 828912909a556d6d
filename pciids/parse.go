// Package pciids reads the text PCI ID registry (pci.ids) and turns it into
// a pcidb.Registry, optionally compacting the names on the way.
package pciids

import (
	"bufio"
	"github.com/jordanwade90/pcidb"
	"io"
	"strconv"
	"strings"
)

// Database holds the names parsed from a pci.ids file.
// Keys are packed the same way as in pcidb.Registry.
type Database struct {
	Vendors    map[uint32]string
	Devices    map[uint32]string
	Subdevices map[uint32]map[uint32]string
	Classes    map[uint32]string
	Subclasses map[uint32]string
	ProgIfs    map[uint32]string
}

// New returns an empty Database.
func New() *Database {
	return &Database{
		Vendors:    make(map[uint32]string),
		Devices:    make(map[uint32]string),
		Subdevices: make(map[uint32]map[uint32]string),
		Classes:    make(map[uint32]string),
		Subclasses: make(map[uint32]string),
		ProgIfs:    make(map[uint32]string),
	}
}

const maxLine = 1 << 20

// Parse reads a pci.ids file.
//
// The format is line based, with the nesting given by leading tabs:
//
//	vvvv  vendor name
//	<tab>dddd  device name
//	<tab><tab>ssss tttt  subsystem name
//	C cc  class name
//	<tab>ss  subclass name
//	<tab><tab>pp  programming interface name
//
// Comment lines start with '#'. Lines that do not parse are skipped,
// along with anything nested below them.
func Parse(r io.Reader) (*Database, error) {
	db := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var (
		inClasses bool
		// parent holds the key of the last good line at each depth,
		// or -1 when that line was missing or malformed.
		parent = [2]int64{-1, -1}
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) < 2 || line[0] == '#' {
			continue
		}

		depth := 0
		for depth < len(line) && line[depth] == '\t' {
			depth++
		}
		body := line[depth:]

		switch {
		case depth == 0 && strings.HasPrefix(body, "C "):
			inClasses = true
			parent = [2]int64{-1, -1}
			id, name, ok := splitID(body[2:], 2)
			if !ok {
				continue
			}
			db.Classes[uint32(id)] = name
			parent[0] = int64(id)

		case depth == 0:
			inClasses = false
			parent = [2]int64{-1, -1}
			id, name, ok := splitID(body, 4)
			if !ok {
				continue
			}
			db.Vendors[uint32(id)] = name
			parent[0] = int64(id)

		case depth == 1 && parent[0] >= 0:
			parent[1] = -1
			if inClasses {
				id, name, ok := splitID(body, 2)
				if !ok {
					continue
				}
				key := pcidb.SubclassKey(uint8(parent[0]), uint8(id))
				db.Subclasses[key] = name
				parent[1] = int64(key)
				continue
			}
			id, name, ok := splitID(body, 4)
			if !ok {
				continue
			}
			key := pcidb.DeviceKey(uint16(parent[0]), uint16(id))
			db.Devices[key] = name
			parent[1] = int64(key)

		case depth == 2 && parent[1] >= 0:
			if inClasses {
				id, name, ok := splitID(body, 2)
				if !ok {
					continue
				}
				key := uint32(parent[1])
				db.ProgIfs[pcidb.ProgIfKey(uint8(key>>8), uint8(key), uint8(id))] = name
				continue
			}
			sv, rest, ok := splitID(body, 4)
			if !ok {
				continue
			}
			sd, name, ok := splitID(rest, 4)
			if !ok {
				continue
			}
			db.addSubdevice(uint32(parent[1]), pcidb.SubdeviceKey(uint16(sv), uint16(sd)), name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) addSubdevice(device, sub uint32, name string) {
	subs := db.Subdevices[device]
	if subs == nil {
		subs = make(map[uint32]string)
		db.Subdevices[device] = subs
	}
	subs[sub] = name
}

// splitID parses the n hex digits at the start of s, which must be followed
// by a blank, and returns them along with the rest of s trimmed of blanks.
func splitID(s string, n int) (id uint64, rest string, ok bool) {
	if len(s) < n+1 || (s[n] != ' ' && s[n] != '\t') {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:n], 16, 4*n)
	if err != nil {
		return 0, "", false
	}
	return id, strings.ToValidUTF8(strings.TrimSpace(s[n:]), ""), true
}
