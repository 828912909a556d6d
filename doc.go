// Package pcidb encodes a PCI ID registry into the compact binary database
// read by memory-constrained firmware that resolves vendor, device,
// subsystem and class codes to display names without parsing text.
//
// The database is six tables of fixed-width little-endian records plus a
// deduplicated string pool:
//
//	Vendor     u16 id, u32 device offset, u32 name
//	Device     u16 id, u32 subdevice offset, u32 name
//	Subdevice  u16 subvendor, u16 subdevice, u32 name
//	Class      u8 class, u32 name
//	Subclass   u8 class, u8 subclass, u32 name
//	ProgIf     u8 class, u8 subclass, u8 progif, u32 name
//
// A reference of 0xFFFFFFFF (Absent) means "none"; offset 0 is a real offset.
// Every table is sorted by identifier and ends in a terminator record whose
// identifier fields are all ones. A real record with that identifier doubles
// as the terminator.
//
// The Vendor, Device and Subdevice tables are linked. Each vendor points at
// the first record of its run in the Device table, and each device at the
// first record of its run in the Subdevice table. Runs end in their own
// terminator, so the reader scans from the run start until it meets a key at
// least as large as the one it wants. Vendors only known as a subsystem
// vendor still get a Vendor record so their name resolves.
//
// Names are interned in the string pool, either length-prefixed or
// NUL-terminated (see record.StringFormat). The empty name is never stored
// and resolves to Absent.
//
// A Database is laid out on disk in one of two ways. Combined is a single
// file: a header of six u32 absolute offsets locating the Device, Subdevice,
// Class, Subclass, ProgIf and string segments, with the Vendor table right
// after the header. Split is one headerless file per segment, named from a
// template such as PCIIDS_@.BIN where '@' is one of V, D, S, C, U, P, T.
// References are relative to the start of the referenced segment in both
// layouts.
//
// Encoding is a single pass over a Registry that is fully loaded in memory.
// Reader decodes either layout and is what the tests use to check the
// encoding round-trips.
package pcidb
