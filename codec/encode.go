package codec

import (
	"github.com/bearlytools/cbuf/internal/cerr"
	"github.com/bearlytools/cbuf/internal/conversions"
	"github.com/bearlytools/cbuf/internal/frame"
	"github.com/bearlytools/cbuf/internal/wire"
	"github.com/bearlytools/cbuf/metadata"
	"github.com/bearlytools/cbuf/schema"
)

// SerializedMessageSize computes the exact byte length Serialize would
// produce for msg, without allocating the output buffer (spec §4.I
// external interface serializedMessageSize).
func SerializedMessageSize(idx *schema.HashIndex, msg *Message) (int, error) {
	sd, err := resolveDescriptor(idx, msg.HashValue)
	if err != nil {
		return 0, err
	}
	n, err := nakedSize(sd, msg.Fields)
	if err != nil {
		return 0, err
	}
	return frame.HeaderSize + n, nil
}

func resolveDescriptor(idx *schema.HashIndex, hash uint64) (*schema.StructDescriptor, error) {
	if sd, ok := idx.Get(hash); ok {
		return sd, nil
	}
	if hash == metadata.HashValue {
		return metadata.Descriptor(), nil
	}
	return nil, cerr.New(cerr.UnknownHash, "no descriptor registered for hash %#x", hash)
}

// nakedSize mirrors decodeNaked's byte accounting in reverse, computing
// the size serializing fields against sd would occupy.
func nakedSize(sd *schema.StructDescriptor, fields map[string]any) (int, error) {
	total := 0
	for _, el := range sd.Elements {
		v, ok := fields[el.Name]
		if !ok {
			return 0, cerr.New(cerr.Encoding, "missing value for field %q", el.Name)
		}
		n, err := elementSize(el, v)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func elementSize(el schema.Element, v any) (int, error) {
	if el.IsArray {
		return arraySize(el, v)
	}
	return scalarSize(el, v)
}

func scalarSize(el schema.Element, v any) (int, error) {
	switch {
	case el.IsComplex:
		sub := el.StructRef()
		fields, ok := v.(map[string]any)
		if !ok {
			return 0, cerr.New(cerr.Encoding, "field %q: expected map[string]any, got %T", el.Name, v)
		}
		n, err := nakedSize(sub, fields)
		if err != nil {
			return 0, err
		}
		if sub.Naked {
			return n, nil
		}
		return frame.HeaderSize + n, nil
	case el.IsEnum():
		return 4, nil
	case el.UpperBound > 0:
		return int(el.UpperBound), nil
	case el.Type == "string":
		s, err := asString(el, v)
		if err != nil {
			return 0, err
		}
		return 4 + len(s), nil
	case el.Type == "bool":
		return 1, nil
	default:
		sz := numericSize(el.Type)
		if sz == 0 {
			return 0, cerr.New(cerr.SizeError, "unknown scalar type %q for field %q", el.Type, el.Name)
		}
		return sz, nil
	}
}

func arraySize(el schema.Element, v any) (int, error) {
	count, each, err := arrayShape(el, v)
	if err != nil {
		return 0, err
	}

	prefixed := el.ArrayKindOf != schema.ArrayFixed
	total := 0
	if prefixed {
		total = 4
	}

	if el.IsComplex || el.Type == "string" {
		scalar := el
		scalar.IsArray = false
		for i := 0; i < count; i++ {
			n, err := scalarSize(scalar, each(i))
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}

	var perElem int
	if el.IsEnum() {
		perElem = 4
	} else if el.Type == "bool" {
		perElem = 1
	} else {
		perElem = numericSize(el.Type)
	}
	return total + count*perElem, nil
}

// arrayShape normalizes the many concrete slice types a field's array
// value might arrive as into a count and an indexer.
//
// A bool array field is special-cased here: decodeArray returns it as a
// []uint8 (internal/wire.BoolView, per spec §4.H), but a freshly built
// Message is just as likely to set it as []bool, so both are accepted and
// normalized to a bool each(i), matching encodeScalar's bool branch.
func arrayShape(el schema.Element, v any) (count int, each func(int) any, err error) {
	if !el.IsComplex && !el.IsEnum() && el.Type == "bool" {
		switch s := v.(type) {
		case []bool:
			return len(s), func(i int) any { return s[i] }, nil
		case []uint8:
			return len(s), func(i int) any { return s[i] != 0 }, nil
		default:
			return 0, nil, cerr.New(cerr.Encoding, "field %q: unsupported array value type %T", el.Name, v)
		}
	}
	switch s := v.(type) {
	case []map[string]any:
		return len(s), func(i int) any { return s[i] }, nil
	case []string:
		return len(s), func(i int) any { return s[i] }, nil
	case []uint8:
		return len(s), func(i int) any { return s[i] }, nil
	case []int8:
		return len(s), func(i int) any { return s[i] }, nil
	case []uint16:
		return len(s), func(i int) any { return s[i] }, nil
	case []int16:
		return len(s), func(i int) any { return s[i] }, nil
	case []uint32:
		return len(s), func(i int) any { return s[i] }, nil
	case []int32:
		return len(s), func(i int) any { return s[i] }, nil
	case []uint64:
		return len(s), func(i int) any { return s[i] }, nil
	case []int64:
		return len(s), func(i int) any { return s[i] }, nil
	case []float32:
		return len(s), func(i int) any { return s[i] }, nil
	case []float64:
		return len(s), func(i int) any { return s[i] }, nil
	default:
		return 0, nil, cerr.New(cerr.Encoding, "field %q: unsupported array value type %T", el.Name, v)
	}
}

func asString(el schema.Element, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", cerr.New(cerr.Encoding, "field %q: expected string, got %T", el.Name, v)
	}
	return s, nil
}

// Serialize encodes msg into a freshly allocated buffer (spec §4.I
// external interface serializeMessage): resolve the descriptor, compute
// the exact size, then write the header and naked payload in one pass. No
// partial buffer is ever returned on failure.
func Serialize(idx *schema.HashIndex, msg *Message) ([]byte, error) {
	sd, err := resolveDescriptor(idx, msg.HashValue)
	if err != nil {
		return nil, err
	}
	n, err := nakedSize(sd, msg.Fields)
	if err != nil {
		return nil, err
	}
	size := frame.HeaderSize + n

	out := make([]byte, size)
	frame.Encode(out, frame.Header{
		Size:       uint32(size),
		Variant:    msg.Variant,
		HasVariant: msg.HasVariant,
		Hash:       msg.HashValue,
		Timestamp:  msg.Timestamp,
	})
	if _, err := encodeNaked(sd, msg.Fields, out[frame.HeaderSize:]); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeNaked(sd *schema.StructDescriptor, fields map[string]any, buf []byte) (int, error) {
	cursor := 0
	for _, el := range sd.Elements {
		v, ok := fields[el.Name]
		if !ok {
			return 0, cerr.New(cerr.Encoding, "missing value for field %q", el.Name)
		}
		n, err := encodeElement(el, v, buf[cursor:])
		if err != nil {
			return 0, err
		}
		cursor += n
	}
	return cursor, nil
}

func encodeElement(el schema.Element, v any, buf []byte) (int, error) {
	if el.IsArray {
		return encodeArray(el, v, buf)
	}
	return encodeScalar(el, v, buf)
}

func encodeScalar(el schema.Element, v any, buf []byte) (int, error) {
	switch {
	case el.IsComplex:
		sub := el.StructRef()
		fields, ok := v.(map[string]any)
		if !ok {
			return 0, cerr.New(cerr.Encoding, "field %q: expected map[string]any, got %T", el.Name, v)
		}
		if sub.Naked {
			return encodeNaked(sub, fields, buf)
		}
		n, err := nakedSize(sub, fields)
		if err != nil {
			return 0, err
		}
		frame.Encode(buf, frame.Header{
			Size:      uint32(frame.HeaderSize + n),
			Hash:      sub.HashValue,
			Timestamp: 0.0, // spec §4.I: nested timestamp is written as 0.0 when not supplied
		})
		if _, err := encodeNaked(sub, fields, buf[frame.HeaderSize:]); err != nil {
			return 0, err
		}
		return frame.HeaderSize + n, nil

	case el.IsEnum():
		n, err := asInt64(el, v)
		if err != nil {
			return 0, err
		}
		wire.Put[int32](buf[:4], int32(n))
		return 4, nil

	case el.UpperBound > 0:
		s, err := asString(el, v)
		if err != nil {
			return 0, err
		}
		if len(s) > int(el.UpperBound) {
			return 0, cerr.New(cerr.Encoding, "field %q: value %q exceeds short_string bound %d", el.Name, s, el.UpperBound)
		}
		n := copy(buf[:el.UpperBound], s)
		for i := n; i < int(el.UpperBound); i++ {
			buf[i] = 0
		}
		return int(el.UpperBound), nil

	case el.Type == "string":
		s, err := asString(el, v)
		if err != nil {
			return 0, err
		}
		wire.Put[uint32](buf[:4], uint32(len(s)))
		copy(buf[4:4+len(s)], conversions.UnsafeGetBytes(s))
		return 4 + len(s), nil

	case el.Type == "bool":
		b, ok := v.(bool)
		if !ok {
			return 0, cerr.New(cerr.Encoding, "field %q: expected bool, got %T", el.Name, v)
		}
		wire.PutBool(buf[:1], b)
		return 1, nil

	default:
		return encodeNumericScalar(el, v, buf)
	}
}

func asInt64(el schema.Element, v any) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, cerr.New(cerr.Encoding, "field %q: expected an integer, got %T", el.Name, v)
	}
}

func encodeNumericScalar(el schema.Element, v any, buf []byte) (int, error) {
	sz := numericSize(el.Type)
	if sz == 0 {
		return 0, cerr.New(cerr.SizeError, "unknown scalar type %q for field %q", el.Type, el.Name)
	}
	switch el.Type {
	case "uint8":
		n, ok := v.(uint8)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[uint8](buf[:1], n)
	case "int8":
		n, ok := v.(int8)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[int8](buf[:1], n)
	case "uint16":
		n, ok := v.(uint16)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[uint16](buf[:2], n)
	case "int16":
		n, ok := v.(int16)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[int16](buf[:2], n)
	case "uint32":
		n, ok := v.(uint32)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[uint32](buf[:4], n)
	case "int32":
		n, ok := v.(int32)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[int32](buf[:4], n)
	case "uint64":
		n, ok := v.(uint64)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[uint64](buf[:8], n)
	case "int64":
		n, ok := v.(int64)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[int64](buf[:8], n)
	case "float32":
		n, ok := v.(float32)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[float32](buf[:4], n)
	case "float64":
		n, ok := v.(float64)
		if !ok {
			return 0, typeMismatch(el, v)
		}
		wire.Put[float64](buf[:8], n)
	default:
		return 0, cerr.New(cerr.SizeError, "unknown scalar type %q for field %q", el.Type, el.Name)
	}
	return sz, nil
}

func typeMismatch(el schema.Element, v any) error {
	return cerr.New(cerr.Encoding, "field %q: value has wrong Go type %T for wire type %s", el.Name, v, el.Type)
}

func encodeArray(el schema.Element, v any, buf []byte) (int, error) {
	count, each, err := arrayShape(el, v)
	if err != nil {
		return 0, err
	}
	if el.ArrayKindOf == schema.ArrayCompact && uint32(count) > el.ArrayUpperBound {
		return 0, cerr.New(cerr.CompactOverflow,
			"field %q: %d elements exceeds compact bound %d", el.Name, count, el.ArrayUpperBound)
	}
	if el.ArrayKindOf == schema.ArrayFixed && uint32(count) != el.ArrayLength {
		return 0, cerr.New(cerr.Encoding,
			"field %q: fixed array needs exactly %d elements, got %d", el.Name, el.ArrayLength, count)
	}

	cursor := 0
	if el.ArrayKindOf != schema.ArrayFixed {
		wire.Put[uint32](buf[:4], uint32(count))
		cursor = 4
	}

	scalar := el
	scalar.IsArray = false
	for i := 0; i < count; i++ {
		n, err := encodeScalar(scalar, each(i), buf[cursor:])
		if err != nil {
			return 0, err
		}
		cursor += n
	}
	return cursor, nil
}
