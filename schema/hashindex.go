package schema

import "github.com/bearlytools/cbuf/internal/cerr"

// HashIndex maps a struct's hashValue to its descriptor (spec §4.J), the
// lookup table the codec uses to resolve a wire record's hash field to a
// descriptor without knowing its name in advance.
type HashIndex struct {
	byHash map[uint64]*StructDescriptor
}

// Get looks up a descriptor by hash.
func (h *HashIndex) Get(hash uint64) (*StructDescriptor, bool) {
	sd, ok := h.byHash[hash]
	return sd, ok
}

// SchemaMapToHashMap derives a HashIndex from m. Two descriptors sharing a
// hash value is an AmbiguousHash error (spec §4.J): it can only arise from
// an adversarial or corrupted schema, since internal/hasher's canonical
// textual form makes an accidental collision between distinct structs
// vanishingly unlikely.
func SchemaMapToHashMap(m *Map) (*HashIndex, error) {
	h := &HashIndex{byHash: map[uint64]*StructDescriptor{}}
	for _, name := range m.Names() {
		sd, _ := m.Get(name)
		if existing, dup := h.byHash[sd.HashValue]; dup {
			return nil, cerr.New(cerr.AmbiguousHash,
				"hash %#x is shared by %q and %q", sd.HashValue, existing.Name, sd.Name)
		}
		h.byHash[sd.HashValue] = sd
	}
	return h, nil
}
