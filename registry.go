package pcidb

// Registry is the cleaned input of a build.
//
// Every map is keyed by the identifier packed the way its table stores it.
// A present key with an empty name is legal and distinct from an absent key.
type Registry struct {
	// Vendors maps a 16-bit vendor id to its name.
	Vendors map[uint32][]byte
	// Devices is keyed by DeviceKey(vendor, device).
	Devices map[uint32][]byte
	// Subdevices is keyed by DeviceKey(vendor, device),
	// then by SubdeviceKey(subvendor, subdevice).
	Subdevices map[uint32]map[uint32][]byte
	// Classes maps an 8-bit class code to its name.
	Classes map[uint32][]byte
	// Subclasses is keyed by SubclassKey(class, subclass).
	Subclasses map[uint32][]byte
	// ProgIfs is keyed by ProgIfKey(class, subclass, progif).
	ProgIfs map[uint32][]byte
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Vendors:    make(map[uint32][]byte),
		Devices:    make(map[uint32][]byte),
		Subdevices: make(map[uint32]map[uint32][]byte),
		Classes:    make(map[uint32][]byte),
		Subclasses: make(map[uint32][]byte),
		ProgIfs:    make(map[uint32][]byte),
	}
}

func DeviceKey(vendor, device uint16) uint32 {
	return uint32(vendor)<<16 | uint32(device)
}

func SubdeviceKey(subvendor, subdevice uint16) uint32 {
	return uint32(subvendor)<<16 | uint32(subdevice)
}

func SubclassKey(class, subclass uint8) uint32 {
	return uint32(class)<<8 | uint32(subclass)
}

func ProgIfKey(class, subclass, progif uint8) uint32 {
	return uint32(class)<<16 | uint32(subclass)<<8 | uint32(progif)
}

func (r *Registry) AddVendor(vendor uint16, name []byte) {
	r.Vendors[uint32(vendor)] = name
}

func (r *Registry) AddDevice(vendor, device uint16, name []byte) {
	r.Devices[DeviceKey(vendor, device)] = name
}

func (r *Registry) AddSubdevice(vendor, device, subvendor, subdevice uint16, name []byte) {
	key := DeviceKey(vendor, device)
	subs := r.Subdevices[key]
	if subs == nil {
		subs = make(map[uint32][]byte)
		r.Subdevices[key] = subs
	}
	subs[SubdeviceKey(subvendor, subdevice)] = name
}

func (r *Registry) AddClass(class uint8, name []byte) {
	r.Classes[uint32(class)] = name
}

func (r *Registry) AddSubclass(class, subclass uint8, name []byte) {
	r.Subclasses[SubclassKey(class, subclass)] = name
}

func (r *Registry) AddProgIf(class, subclass, progif uint8, name []byte) {
	r.ProgIfs[ProgIfKey(class, subclass, progif)] = name
}
