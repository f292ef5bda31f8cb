// Package metadata provides the built-in cbufmsg::metadata descriptor
// (spec §4.K): a fixed, immutable struct descriptor identical in shape to
// what parsing its schema text would produce, used as a fallback when an
// incoming record's hash is the bootstrap hash and the caller's own
// descriptor table has no equivalent entry. This is what lets a stream be
// self-describing: a metadata record can travel ahead of the schema it
// describes without the receiver needing to already know that schema.
package metadata

import (
	"fmt"

	"github.com/bearlytools/cbuf/schema"
)

// Source is the canonical schema text the bootstrap descriptor is built
// from (spec §4.K).
const Source = "namespace cbufmsg {\n\tstruct metadata {\n\t\tu64 msg_hash;\n\t\tstring msg_name;\n\t\tstring msg_meta;\n\t}\n}\n"

// Name is the qualified name of the bootstrap descriptor.
const Name = "cbufmsg::metadata"

// HashValue is the bootstrap descriptor's fixed hash (spec §4.K).
const HashValue uint64 = 0xBE6738D544AB72C6

var descriptor *schema.StructDescriptor

func init() {
	m, err := schema.ParseCBufSchema(Source)
	if err != nil {
		panic(fmt.Sprintf("metadata: bootstrap schema failed to parse: %s", err))
	}
	sd, ok := m.Get(Name)
	if !ok {
		panic("metadata: bootstrap schema missing " + Name)
	}
	descriptor = sd
}

// Descriptor returns the immutable bootstrap cbufmsg::metadata descriptor.
func Descriptor() *schema.StructDescriptor { return descriptor }
