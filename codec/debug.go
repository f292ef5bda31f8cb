package codec

import (
	"fmt"
	"strings"

	"github.com/bearlytools/cbuf/internal/cerr"
	"github.com/bearlytools/cbuf/internal/frame"
	"github.com/bearlytools/cbuf/internal/wire"
	"github.com/bearlytools/cbuf/schema"
)

// Skip advances past one framed record without decoding its body: it
// reads just the header, validates the magic, and returns the offset of
// the next record. This is the supplemented "skip without decode"
// operation (see the original C++ reader's equivalent fast-forward path),
// useful for scanning a stream of records to find one of interest without
// paying for full decode of records that will be discarded.
func Skip(buffer []byte, offset int) (int, error) {
	if offset < 0 || offset >= len(buffer) {
		return 0, cerr.New(cerr.InvalidOffset, "offset %d out of range for buffer of length %d", offset, len(buffer))
	}
	view := buffer[offset:]
	if len(view) < frame.HeaderSize {
		return 0, cerr.New(cerr.TruncatedRecord, "record header needs %d bytes, have %d", frame.HeaderSize, len(view))
	}
	magic := wire.Get[uint32](view[0:4])
	if magic != frame.Magic {
		return 0, cerr.New(cerr.InvalidMagic, "bad magic %#x", magic)
	}
	hdr := frame.Decode(view)
	if int(hdr.Size) > len(view) {
		return 0, cerr.New(cerr.TruncatedRecord, "record declares size %d, only %d bytes available", hdr.Size, len(view))
	}
	return offset + int(hdr.Size), nil
}

// DebugString renders a decoded Message as a human-readable tree, field
// order matching the struct descriptor's declaration order rather than Go
// map iteration order. This is the supplemented "print" operation from the
// original implementation's debug tooling.
func DebugString(idx *schema.HashIndex, msg *Message) (string, error) {
	sd, err := resolveDescriptor(idx, msg.HashValue)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (hash=%#x, size=%d", sd.Name, msg.HashValue, msg.Size)
	if msg.HasVariant {
		fmt.Fprintf(&b, ", variant=%d", msg.Variant)
	}
	fmt.Fprintf(&b, ", timestamp=%v) {\n", msg.Timestamp)
	writeFields(&b, sd, msg.Fields, 1)
	b.WriteString("}")
	return b.String(), nil
}

func writeFields(b *strings.Builder, sd *schema.StructDescriptor, fields map[string]any, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, el := range sd.Elements {
		v := fields[el.Name]
		fmt.Fprintf(b, "%s%s: ", pad, el.Name)
		writeValue(b, el, v, indent)
		b.WriteString("\n")
	}
}

func writeValue(b *strings.Builder, el schema.Element, v any, indent int) {
	if el.IsComplex {
		inner, ok := v.(map[string]any)
		if !ok {
			fmt.Fprintf(b, "<invalid: %T>", v)
			return
		}
		b.WriteString("{\n")
		writeFields(b, el.StructRef(), inner, indent+1)
		fmt.Fprintf(b, "%s}", strings.Repeat("  ", indent))
		return
	}
	fmt.Fprintf(b, "%v", v)
}
