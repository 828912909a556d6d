package pcidb

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/jordanwade90/pcidb/record"
	"math/rand"
	"strings"
	"testing"
)

func mustBuild(t *testing.T, reg *Registry, opts Options) *Database {
	t.Helper()
	db, err := Build(reg, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return db
}

func poolName(t *testing.T, db *Database, ref uint32) string {
	t.Helper()
	if ref == Absent {
		t.Fatalf("expected a name, got absent reference")
	}
	name, ok := db.opts.Strings.Read(db.Segment(SegmentStrings), ref)
	if !ok {
		t.Fatalf("bad string reference %#x", ref)
	}
	return string(name)
}

func TestBuildEmptyRegistry(t *testing.T) {
	db := mustBuild(t, NewRegistry(), DefaultOptions)
	for _, seg := range Segments[:numTables] {
		recs := decodeTable(db.Table(seg))
		if len(recs) != 1 {
			t.Errorf("%v: %d records, want only the terminator", seg, len(recs))
			continue
		}
		if !seg.Layout().IsTerminator(recs[0].key, recs[0].refs) {
			t.Errorf("%v: record %+v is not a terminator", seg, recs[0])
		}
	}
	if n := len(db.Segment(SegmentStrings)); n != 0 {
		t.Errorf("string pool has %d bytes, want 0", n)
	}
}

func TestBuildSingleVendorDevice(t *testing.T) {
	reg := NewRegistry()
	reg.AddVendor(0x1234, []byte("Acme"))
	reg.AddDevice(0x1234, 0x0001, []byte("Widget"))
	db := mustBuild(t, reg, DefaultOptions)

	vendors := decodeTable(db.Table(SegmentVendor))
	if len(vendors) != 2 {
		t.Fatalf("vendor table has %d records, want 2", len(vendors))
	}
	if v := vendors[0]; v.key != 0x1234 || v.refs[0] != 0 || poolName(t, db, v.refs[1]) != "Acme" {
		t.Errorf("vendor record = %+v", v)
	}

	devices := decodeTable(db.Table(SegmentDevice))
	if len(devices) != 2 {
		t.Fatalf("device table has %d records, want 2", len(devices))
	}
	if d := devices[0]; d.key != 0x0001 || d.refs[0] != Absent || poolName(t, db, d.refs[1]) != "Widget" {
		t.Errorf("device record = %+v", d)
	}

	subdevices := decodeTable(db.Table(SegmentSubdevice))
	if len(subdevices) != 1 || subdevices[0].key != 0xFFFFFFFF {
		t.Errorf("subdevice table = %+v, want only the terminator", subdevices)
	}
	if db.Names() != 2 {
		t.Errorf("Names() = %d, want 2", db.Names())
	}
}

func TestBuildDeviceFFFFIsTerminator(t *testing.T) {
	reg := NewRegistry()
	reg.AddVendor(0x1234, []byte("Acme"))
	reg.AddDevice(0x1234, 0x0001, []byte("Widget"))
	reg.AddDevice(0x1234, 0xFFFF, []byte("Last"))
	reg.AddVendor(0x2000, []byte("Beta"))
	reg.AddDevice(0x2000, 0x0002, []byte("Gadget"))
	db := mustBuild(t, reg, DefaultOptions)

	devices := decodeTable(db.Table(SegmentDevice))
	var keys []uint32
	for _, d := range devices {
		keys = append(keys, d.key)
	}
	want := []uint32{0x0001, 0xFFFF, 0x0002, 0xFFFF}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("device keys = %#x, want %#x", keys, want)
	}
	if poolName(t, db, devices[1].refs[1]) != "Last" {
		t.Errorf("device 0xffff lost its name")
	}

	vendors := decodeTable(db.Table(SegmentVendor))
	if vendors[1].key != 0x2000 || vendors[1].refs[0] != uint32(2*record.Device.Size()) {
		t.Errorf("second vendor = %+v, want device offset %d", vendors[1], 2*record.Device.Size())
	}
}

func TestBuildSharedNames(t *testing.T) {
	reg := NewRegistry()
	reg.AddVendor(0x1000, []byte("A"))
	reg.AddVendor(0x2000, []byte("B"))
	reg.AddDevice(0x1000, 0x0001, []byte("Host Controller"))
	reg.AddDevice(0x2000, 0x0001, []byte("Host Controller"))
	db := mustBuild(t, reg, DefaultOptions)

	devices := decodeTable(db.Table(SegmentDevice))
	if devices[0].refs[1] != devices[2].refs[1] {
		t.Errorf("shared name stored twice: refs %#x and %#x", devices[0].refs[1], devices[2].refs[1])
	}
	if n := bytes.Count(db.Segment(SegmentStrings), []byte("Host Controller")); n != 1 {
		t.Errorf("pool holds %d copies of the shared name", n)
	}
	if db.Names() != 3 {
		t.Errorf("Names() = %d, want 3", db.Names())
	}
}

func subdeviceRegistry() *Registry {
	reg := NewRegistry()
	reg.AddVendor(0x1000, []byte("Alpha"))
	reg.AddDevice(0x1000, 0x0001, []byte("Bridge"))
	reg.AddSubdevice(0x1000, 0x0001, 0x2000, 0x0010, []byte("Beta board"))
	reg.AddSubdevice(0x1000, 0x0001, 0x1af4, 0x1100, []byte("QEMU"))
	reg.AddSubdevice(0x1000, 0x0001, 0x1b36, 0x0001, []byte("Unnamed vendor board"))
	reg.AddDevice(0x1000, 0x0002, []byte("Plain"))
	reg.AddVendor(0x1af4, []byte("Red Hat"))
	reg.AddVendor(0x2000, []byte("Beta"))
	reg.AddDevice(0x2000, 0x0005, []byte("Beta device"))
	reg.AddSubdevice(0x2000, 0x0005, 0x2000, 0x0005, []byte("Beta device"))
	return reg
}

func TestBuildSubdevices(t *testing.T) {
	db := mustBuild(t, subdeviceRegistry(), DefaultOptions)
	devSize := uint32(record.Device.Size())
	subSize := uint32(record.Subdevice.Size())

	subs := decodeTable(db.Table(SegmentSubdevice))
	wantSubs := []uint32{0x1af41100, 0x1b360001, 0x20000010, 0xFFFFFFFF, 0x20000005, 0xFFFFFFFF}
	if len(subs) != len(wantSubs) {
		t.Fatalf("subdevice table has %d records, want %d", len(subs), len(wantSubs))
	}
	for i, s := range subs {
		if s.key != wantSubs[i] {
			t.Errorf("subdevice %d key = %#x, want %#x", i, s.key, wantSubs[i])
		}
	}

	devices := decodeTable(db.Table(SegmentDevice))
	wantDevices := []rec{
		{0x0001, [2]uint32{0, 0}},
		{0x0002, [2]uint32{Absent, 0}},
		{0xFFFF, [2]uint32{Absent, Absent}},
		{0x0005, [2]uint32{4 * subSize, 0}},
		{0xFFFF, [2]uint32{Absent, Absent}},
	}
	if len(devices) != len(wantDevices) {
		t.Fatalf("device table has %d records, want %d", len(devices), len(wantDevices))
	}
	for i, d := range devices {
		if d.key != wantDevices[i].key || d.refs[0] != wantDevices[i].refs[0] {
			t.Errorf("device %d = %+v, want key %#x subdevice ref %#x", i, d, wantDevices[i].key, wantDevices[i].refs[0])
		}
	}
	if poolName(t, db, devices[1].refs[1]) != "Plain" {
		t.Errorf("device 0x0002 name mismatch")
	}
	if devices[3].refs[1] != subs[4].refs[0] {
		t.Errorf("identical device and subdevice names not shared")
	}

	vendors := decodeTable(db.Table(SegmentVendor))
	wantVendors := []struct {
		id    uint32
		start uint32
		name  string
	}{
		{0x1000, 0, "Alpha"},
		{0x1af4, Absent, "Red Hat"},
		{0x2000, 3 * devSize, "Beta"},
	}
	if len(vendors) != len(wantVendors)+1 {
		t.Fatalf("vendor table has %d records, want %d", len(vendors), len(wantVendors)+1)
	}
	for i, w := range wantVendors {
		v := vendors[i]
		if v.key != w.id || v.refs[0] != w.start || poolName(t, db, v.refs[1]) != w.name {
			t.Errorf("vendor %d = %+v, want %#x start %#x %q", i, v, w.id, w.start, w.name)
		}
	}
}

func TestBuildRecordIndices(t *testing.T) {
	db := mustBuild(t, subdeviceRegistry(), Options{Strings: record.NULTerminated, Offsets: RecordIndices})

	devices := decodeTable(db.Table(SegmentDevice))
	if devices[0].refs[0] != 0 || devices[3].refs[0] != 4 {
		t.Errorf("subdevice indices = %d, %d, want 0, 4", devices[0].refs[0], devices[3].refs[0])
	}
	vendors := decodeTable(db.Table(SegmentVendor))
	if vendors[2].key != 0x2000 || vendors[2].refs[0] != 3 {
		t.Errorf("vendor 0x2000 = %+v, want device index 3", vendors[2])
	}
}

func TestBuildVendorPresence(t *testing.T) {
	reg := NewRegistry()
	// No name and no devices: dropped.
	reg.AddVendor(0x0001, nil)
	// No name but devices: kept.
	reg.AddVendor(0x0002, []byte{})
	reg.AddDevice(0x0002, 0x0001, []byte("Dev"))
	// Name only: kept.
	reg.AddVendor(0x0003, []byte("Name only"))
	// Devices, never named: kept.
	reg.AddDevice(0x0004, 0x0001, nil)
	db := mustBuild(t, reg, DefaultOptions)

	vendors := decodeTable(db.Table(SegmentVendor))
	want := []rec{
		{0x0002, [2]uint32{0, Absent}},
		{0x0003, [2]uint32{Absent, 0}},
		{0x0004, [2]uint32{2 * uint32(record.Device.Size()), Absent}},
		{0xFFFF, [2]uint32{Absent, Absent}},
	}
	if len(vendors) != len(want) {
		t.Fatalf("vendor table = %+v, want %d records", vendors, len(want))
	}
	for i := range want {
		if vendors[i].key != want[i].key || vendors[i].refs[0] != want[i].refs[0] {
			t.Errorf("vendor %d = %+v, want %+v", i, vendors[i], want[i])
		}
		if (vendors[i].refs[1] == Absent) != (want[i].refs[1] == Absent) {
			t.Errorf("vendor %d name ref = %#x", i, vendors[i].refs[1])
		}
	}

	devices := decodeTable(db.Table(SegmentDevice))
	if devices[2].key != 0x0001 || devices[2].refs[1] != Absent {
		t.Errorf("unnamed device = %+v, want absent name", devices[2])
	}
}

func TestBuildClasses(t *testing.T) {
	reg := NewRegistry()
	reg.AddClass(0x01, []byte("Mass storage controller"))
	reg.AddClass(0xFF, []byte("Unassigned class"))
	reg.AddSubclass(0x01, 0x06, []byte("SATA controller"))
	reg.AddProgIf(0x01, 0x06, 0x01, []byte("AHCI 1.0"))
	reg.AddProgIf(0x0c, 0x03, 0x30, []byte("XHCI"))
	db := mustBuild(t, reg, DefaultOptions)

	classes := decodeTable(db.Table(SegmentClass))
	if len(classes) != 2 || classes[1].key != 0xFF || poolName(t, db, classes[1].refs[0]) != "Unassigned class" {
		t.Errorf("class table = %+v, want real 0xff record as terminator", classes)
	}
	subclasses := decodeTable(db.Table(SegmentSubclass))
	if len(subclasses) != 2 || subclasses[0].key != 0x0106 || subclasses[1].key != 0xFFFF {
		t.Errorf("subclass table = %+v", subclasses)
	}
	progifs := decodeTable(db.Table(SegmentProgIf))
	if len(progifs) != 3 || progifs[0].key != 0x010601 || progifs[1].key != 0x0c0330 || progifs[2].key != 0xFFFFFF {
		t.Errorf("progif table = %+v", progifs)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		fill    func(*Registry)
		wantErr error
	}{
		{"class", DefaultOptions, func(r *Registry) { r.Classes[0x100] = []byte("x") }, ErrIdentifierOutOfRange},
		{"subclass", DefaultOptions, func(r *Registry) { r.Subclasses[0x10000] = []byte("x") }, ErrIdentifierOutOfRange},
		{"progif", DefaultOptions, func(r *Registry) { r.ProgIfs[0x1000000] = []byte("x") }, ErrIdentifierOutOfRange},
		{"vendor", DefaultOptions, func(r *Registry) { r.Vendors[0x10000] = []byte("x") }, ErrIdentifierOutOfRange},
		{"unnamed vendor", DefaultOptions, func(r *Registry) { r.Vendors[0x10000] = nil }, ErrIdentifierOutOfRange},
		{"long name", DefaultOptions, func(r *Registry) { r.AddClass(1, bytes.Repeat([]byte("a"), 256)) }, ErrNameTooLong},
		{
			"nul in name",
			Options{Strings: record.NULTerminated},
			func(r *Registry) { r.AddDevice(1, 1, []byte("a\x00b")) },
			ErrInvalidName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			tt.fill(reg)
			db, err := Build(reg, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build error = %v, want %v", err, tt.wantErr)
			}
			if db != nil {
				t.Error("Build returned a database along with an error")
			}
		})
	}
}

// randomRegistry returns a registry of n vendors with random devices,
// subdevices and classes, some of them sharing names.
func randomRegistry(seed int64, n int) *Registry {
	rng := rand.New(rand.NewSource(seed))
	names := []string{"Host Controller", "Bridge", "NIC", "GPU", "Audio"}
	name := func() []byte {
		if rng.Intn(3) == 0 {
			return []byte(names[rng.Intn(len(names))])
		}
		return []byte(fmt.Sprintf("Name %d", rng.Intn(1000)))
	}
	id16 := func() uint16 {
		if rng.Intn(50) == 0 {
			return 0xFFFF
		}
		return uint16(rng.Intn(0x10000))
	}

	reg := NewRegistry()
	for i := 0; i < n; i++ {
		vendor := id16()
		reg.AddVendor(vendor, name())
		for j := rng.Intn(5); j > 0; j-- {
			device := id16()
			reg.AddDevice(vendor, device, name())
			for k := rng.Intn(4); k > 0; k-- {
				reg.AddSubdevice(vendor, device, id16(), id16(), name())
			}
		}
	}
	for i := 0; i < 40; i++ {
		c, s, p := uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))
		reg.AddClass(c, name())
		reg.AddSubclass(c, s, name())
		reg.AddProgIf(c, s, p, name())
	}
	return reg
}

func TestBuildTablesSortedAndTerminated(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		db := mustBuild(t, randomRegistry(seed, 60), DefaultOptions)
		for _, seg := range Segments[:numTables] {
			layout := seg.Layout()
			recs := decodeTable(db.Table(seg))
			last := recs[len(recs)-1]
			if last.key != layout.MaxID() {
				t.Fatalf("seed %d %v: table ends in %#x", seed, seg, last.key)
			}
			if len(recs) > 1 {
				prev := recs[len(recs)-2]
				if layout.IsTerminator(prev.key, prev.refs) {
					t.Fatalf("seed %d %v: duplicated terminator", seed, seg)
				}
			}

			// Linked tables restart their keys after each terminator.
			linked := seg == SegmentDevice || seg == SegmentSubdevice
			for i := 1; i < len(recs); i++ {
				if linked && recs[i-1].key == layout.MaxID() {
					continue
				}
				if recs[i].key <= recs[i-1].key {
					t.Fatalf("seed %d %v: key %#x follows %#x", seed, seg, recs[i].key, recs[i-1].key)
				}
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := mustBuild(t, randomRegistry(7, 100), DefaultOptions)
	b := mustBuild(t, randomRegistry(7, 100), DefaultOptions)
	for _, seg := range Segments {
		if !bytes.Equal(a.Segment(seg), b.Segment(seg)) {
			t.Errorf("%v differs between identical builds", seg)
		}
	}
}

func TestSegmentNames(t *testing.T) {
	var letters strings.Builder
	for _, seg := range Segments {
		letters.WriteByte(seg.Letter())
	}
	if letters.String() != "VDSCUPT" {
		t.Errorf("segment letters = %q", letters.String())
	}
	if SegmentProgIf.String() != "progif" || SegmentStrings.String() != "strings" {
		t.Errorf("segment names = %v, %v", SegmentProgIf, SegmentStrings)
	}
}
