package codec

import (
	"github.com/bearlytools/cbuf/internal/cerr"
	"github.com/bearlytools/cbuf/internal/conversions"
	"github.com/bearlytools/cbuf/internal/frame"
	"github.com/bearlytools/cbuf/internal/wire"
	"github.com/bearlytools/cbuf/metadata"
	"github.com/bearlytools/cbuf/schema"
)

// Deserialize decodes one framed record from buffer starting at offset
// (spec §4.H / external interface deserializeMessage). idx resolves the
// record's hash to a descriptor; when the hash is unknown but matches the
// built-in cbufmsg::metadata hash, metadata.Descriptor is used instead,
// which is what lets a stream describe its own schema. The schema Map
// itself isn't needed here: every lookup the decoder performs is by hash.
func Deserialize(idx *schema.HashIndex, buffer []byte, offset int) (*Message, error) {
	if offset < 0 || offset >= len(buffer) {
		return nil, cerr.New(cerr.InvalidOffset, "offset %d out of range for buffer of length %d", offset, len(buffer))
	}
	view := buffer[offset:]
	if len(view) < frame.HeaderSize {
		return nil, cerr.New(cerr.TruncatedRecord, "record header needs %d bytes, have %d", frame.HeaderSize, len(view))
	}

	magic := wire.Get[uint32](view[0:4])
	if magic != frame.Magic {
		return nil, cerr.New(cerr.InvalidMagic, "bad magic %#x", magic)
	}
	hdr := frame.Decode(view)
	if int(hdr.Size) > len(view) {
		return nil, cerr.New(cerr.TruncatedRecord, "record declares size %d, only %d bytes available", hdr.Size, len(view))
	}

	sd, ok := idx.Get(hdr.Hash)
	if !ok {
		if hdr.Hash == metadata.HashValue {
			sd = metadata.Descriptor()
		} else {
			return nil, cerr.New(cerr.UnknownHash, "no descriptor registered for hash %#x", hdr.Hash)
		}
	}

	body := view[frame.HeaderSize:hdr.Size]
	fields, consumed, err := decodeNaked(sd, body)
	if err != nil {
		return nil, err
	}
	if consumed+frame.HeaderSize != int(hdr.Size) {
		return nil, cerr.New(cerr.SizeMismatch,
			"decoded %d body bytes, expected %d", consumed, int(hdr.Size)-frame.HeaderSize)
	}

	return &Message{
		TypeName:   sd.Name,
		Size:       int(hdr.Size),
		Variant:    hdr.Variant,
		HasVariant: hdr.HasVariant,
		HashValue:  hdr.Hash,
		Timestamp:  hdr.Timestamp,
		Fields:     fields,
	}, nil
}

// decodeNaked decodes every element of sd, in declaration order, starting
// at buf[0]. It returns the decoded fields and the number of bytes
// consumed from buf.
func decodeNaked(sd *schema.StructDescriptor, buf []byte) (map[string]any, int, error) {
	fields := make(map[string]any, len(sd.Elements))
	cursor := 0
	for _, el := range sd.Elements {
		v, n, err := decodeElement(el, buf[cursor:])
		if err != nil {
			return nil, 0, err
		}
		fields[el.Name] = v
		cursor += n
	}
	return fields, cursor, nil
}

func need(buf []byte, n int, what string) error {
	if len(buf) < n {
		return cerr.New(cerr.TruncatedRecord, "need %d bytes to decode %s, have %d", n, what, len(buf))
	}
	return nil
}

func decodeElement(el schema.Element, buf []byte) (any, int, error) {
	if el.IsArray {
		return decodeArray(el, buf)
	}
	return decodeScalar(el, buf)
}

func decodeArray(el schema.Element, buf []byte) (any, int, error) {
	cursor := 0
	var count int
	switch el.ArrayKindOf {
	case schema.ArrayFixed:
		count = int(el.ArrayLength)
	case schema.ArrayDynamic:
		if err := need(buf, 4, "array count"); err != nil {
			return nil, 0, err
		}
		count = int(wire.Get[uint32](buf[:4]))
		cursor = 4
	case schema.ArrayCompact:
		if err := need(buf, 4, "array count"); err != nil {
			return nil, 0, err
		}
		count = int(wire.Get[uint32](buf[:4]))
		cursor = 4
		if uint32(count) > el.ArrayUpperBound {
			return nil, 0, cerr.New(cerr.CompactOverflow,
				"field %q: compact array count %d exceeds bound %d", el.Name, count, el.ArrayUpperBound)
		}
	default:
		return nil, 0, cerr.New(cerr.SizeError, "field %q: array with unknown kind", el.Name)
	}

	scalar := el
	scalar.IsArray = false

	switch {
	case el.IsComplex:
		out := make([]map[string]any, count)
		for i := 0; i < count; i++ {
			v, n, err := decodeScalar(scalar, buf[cursor:])
			if err != nil {
				return nil, 0, err
			}
			out[i] = v.(map[string]any)
			cursor += n
		}
		return out, cursor, nil

	case el.Type == "string":
		// Covers both dynamic strings and short_string (UpperBound > 0):
		// decodeScalar already dispatches on UpperBound per element.
		out := make([]string, count)
		for i := 0; i < count; i++ {
			v, n, err := decodeScalar(scalar, buf[cursor:])
			if err != nil {
				return nil, 0, err
			}
			out[i] = v.(string)
			cursor += n
		}
		return out, cursor, nil

	case el.IsEnum():
		byteLen := count * 4
		if err := need(buf[cursor:], byteLen, "enum array"); err != nil {
			return nil, 0, err
		}
		out := wire.View[int32](buf[cursor:cursor+byteLen], count)
		return out, cursor + byteLen, nil

	case el.Type == "bool":
		if err := need(buf[cursor:], count, "bool array"); err != nil {
			return nil, 0, err
		}
		out := wire.BoolView(buf[cursor:cursor+count], count)
		return out, cursor + count, nil

	default:
		return decodeNumericArray(el.Type, buf[cursor:], count, cursor)
	}
}

func decodeNumericArray(typeName string, buf []byte, count, cursorBase int) (any, int, error) {
	elemSize := numericSize(typeName)
	byteLen := count * elemSize
	if err := need(buf, byteLen, "array of "+typeName); err != nil {
		return nil, 0, err
	}
	view := buf[:byteLen]
	switch typeName {
	case "uint8":
		return wire.View[uint8](view, count), cursorBase + byteLen, nil
	case "int8":
		return wire.View[int8](view, count), cursorBase + byteLen, nil
	case "uint16":
		return wire.View[uint16](view, count), cursorBase + byteLen, nil
	case "int16":
		return wire.View[int16](view, count), cursorBase + byteLen, nil
	case "uint32":
		return wire.View[uint32](view, count), cursorBase + byteLen, nil
	case "int32":
		return wire.View[int32](view, count), cursorBase + byteLen, nil
	case "uint64":
		return wire.View[uint64](view, count), cursorBase + byteLen, nil
	case "int64":
		return wire.View[int64](view, count), cursorBase + byteLen, nil
	case "float32":
		return wire.View[float32](view, count), cursorBase + byteLen, nil
	case "float64":
		return wire.View[float64](view, count), cursorBase + byteLen, nil
	default:
		return nil, 0, cerr.New(cerr.SizeError, "unknown numeric array type %q", typeName)
	}
}

func numericSize(typeName string) int {
	switch typeName {
	case "uint8", "int8":
		return 1
	case "uint16", "int16":
		return 2
	case "uint32", "int32", "float32":
		return 4
	case "uint64", "int64", "float64":
		return 8
	}
	return 0
}

func decodeScalar(el schema.Element, buf []byte) (any, int, error) {
	switch {
	case el.IsComplex:
		return decodeComplex(el, buf)
	case el.IsEnum():
		if err := need(buf, 4, "enum field "+el.Name); err != nil {
			return nil, 0, err
		}
		return wire.Get[int32](buf[:4]), 4, nil
	case el.UpperBound > 0:
		if err := need(buf, int(el.UpperBound), "short_string field "+el.Name); err != nil {
			return nil, 0, err
		}
		raw := buf[:el.UpperBound]
		n := indexByte(raw, 0)
		if n < 0 {
			n = len(raw)
		}
		return conversions.ByteSlice2String(raw[:n:n]), int(el.UpperBound), nil
	case el.Type == "string":
		if err := need(buf, 4, "string length for field "+el.Name); err != nil {
			return nil, 0, err
		}
		n := int(wire.Get[uint32](buf[:4]))
		if err := need(buf[4:], n, "string content for field "+el.Name); err != nil {
			return nil, 0, err
		}
		s := conversions.ByteSlice2String(buf[4 : 4+n])
		return s, 4 + n, nil
	case el.Type == "bool":
		if err := need(buf, 1, "bool field "+el.Name); err != nil {
			return nil, 0, err
		}
		return wire.GetBool(buf[:1]), 1, nil
	default:
		sz := numericSize(el.Type)
		if sz == 0 {
			return nil, 0, cerr.New(cerr.SizeError, "unknown scalar type %q for field %q", el.Type, el.Name)
		}
		if err := need(buf, sz, "field "+el.Name); err != nil {
			return nil, 0, err
		}
		return decodeNumericScalar(el.Type, buf[:sz]), sz, nil
	}
}

func decodeNumericScalar(typeName string, buf []byte) any {
	switch typeName {
	case "uint8":
		return wire.Get[uint8](buf)
	case "int8":
		return wire.Get[int8](buf)
	case "uint16":
		return wire.Get[uint16](buf)
	case "int16":
		return wire.Get[int16](buf)
	case "uint32":
		return wire.Get[uint32](buf)
	case "int32":
		return wire.Get[int32](buf)
	case "uint64":
		return wire.Get[uint64](buf)
	case "int64":
		return wire.Get[int64](buf)
	case "float32":
		return wire.Get[float32](buf)
	case "float64":
		return wire.Get[float64](buf)
	}
	return nil
}

// decodeComplex decodes a struct-typed field: naked in place, or a framed
// nested record whose own header is consumed but not surfaced (spec
// §4.H).
func decodeComplex(el schema.Element, buf []byte) (any, int, error) {
	sub := el.StructRef()
	if sub.Naked {
		fields, n, err := decodeNaked(sub, buf)
		if err != nil {
			return nil, 0, err
		}
		return fields, n, nil
	}

	if err := need(buf, frame.HeaderSize, "nested record header for field "+el.Name); err != nil {
		return nil, 0, err
	}
	magic := wire.Get[uint32](buf[0:4])
	if magic != frame.Magic {
		return nil, 0, cerr.New(cerr.InvalidMagic, "bad magic %#x in nested field %q", magic, el.Name)
	}
	hdr := frame.Decode(buf)
	if int(hdr.Size) > len(buf) {
		return nil, 0, cerr.New(cerr.TruncatedRecord,
			"nested record in field %q declares size %d, only %d bytes available", el.Name, hdr.Size, len(buf))
	}
	fields, consumed, err := decodeNaked(sub, buf[frame.HeaderSize:hdr.Size])
	if err != nil {
		return nil, 0, err
	}
	if consumed+frame.HeaderSize != int(hdr.Size) {
		return nil, 0, cerr.New(cerr.SizeMismatch,
			"nested field %q: decoded %d body bytes, expected %d", el.Name, consumed, int(hdr.Size)-frame.HeaderSize)
	}
	return fields, int(hdr.Size), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
