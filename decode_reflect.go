package cbor

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/contentauth/c2pa-cbor/format"
	"github.com/contentauth/c2pa-cbor/internal/hash"
)

// Decode reads one CBOR data item into v, which must be a non-nil pointer.
//
// Integer targets check the range and fail with ErrOutOfRange instead of
// truncating; -2^64..-2^63-1 fit no Go integer type and decode into big.Int
// (or *big.Int for interface targets). Float targets accept any integer and
// hold the nearest float value. Maps decode into Go
// maps (duplicate keys keep the last value) or structs (duplicate keys
// fail). Tags are transparent: the content is decoded as its underlying
// type, except typed-array tags, which fill numeric slices, and *Tag
// targets, which capture the tag number alongside the content.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("cbor: Decode target must be a non-nil pointer, got %T", v)
	}

	return d.decodeValue(rv.Elem(), 0)
}

// nullish consumes a pending null or undefined and reports whether one was
// found.
func (d *Decoder) nullish() bool {
	if d.pos >= len(d.data) {
		return false
	}
	b := d.data[d.pos]
	if b == 0xf6 || b == 0xf7 {
		d.pos++

		return true
	}

	return false
}

func (d *Decoder) decodeValue(rv reflect.Value, depth int) error {
	if depth > d.maxDepth {
		return decodeErr(d.pos, ErrNestingDepthExceeded)
	}

	// Undefined round-trips into its own type, and empty-interface targets
	// take the generic representation (nil for null, Undefined{} for
	// undefined); for every other target both null and undefined clear the
	// value.
	if rv.Type() == undefinedType {
		return d.ReadUndefined()
	}
	emptyIface := rv.Kind() == reflect.Interface && rv.NumMethod() == 0
	if !emptyIface && d.nullish() {
		rv.SetZero()

		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}

		return d.decodeValue(rv.Elem(), depth)
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return fmt.Errorf("cbor: cannot decode into non-empty interface %s", rv.Type())
		}
		x, err := d.decodeInterface(depth)
		if err != nil {
			return err
		}
		if x == nil {
			rv.SetZero()
		} else {
			rv.Set(reflect.ValueOf(x))
		}

		return nil
	}

	switch rv.Type() {
	case bigIntType:
		v, err := d.ReadBigInt()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(*v))

		return nil
	case simpleGoType:
		s, err := d.ReadSimple()
		if err != nil {
			return err
		}
		rv.SetUint(uint64(s))

		return nil
	case tagGoType:
		return d.decodeTagValue(rv, depth)
	}

	start := d.pos

	major, arg, indef, err := d.readHead()
	if err != nil {
		return err
	}

	switch major {
	case format.MajorUnsigned:
		return d.setInt(rv, start, arg, false)
	case format.MajorNegative:
		return d.setInt(rv, start, arg, true)
	case format.MajorBytes:
		p, err := d.readSegments(major, arg, indef, false)
		if err != nil {
			return err
		}

		return d.setBytes(rv, start, p)
	case format.MajorText:
		p, err := d.readSegments(major, arg, indef, false)
		if err != nil {
			return err
		}
		if rv.Kind() != reflect.String {
			return decodeErrf(start, ErrTypeMismatch, "cannot decode text string into %s", rv.Type())
		}
		rv.SetString(string(p))

		return nil
	case format.MajorArray:
		return d.decodeSeq(rv, start, arg, indef, depth)
	case format.MajorMap:
		switch rv.Kind() {
		case reflect.Map:
			return d.decodeMap(rv, start, arg, indef, depth)
		case reflect.Struct:
			return d.decodeStruct(rv, start, arg, indef, depth)
		default:
			return decodeErrf(start, ErrTypeMismatch, "cannot decode map into %s", rv.Type())
		}
	case format.MajorTag:
		if isTypedArrayTag(arg) && rv.Kind() == reflect.Slice {
			if ok, err := d.decodeTypedArraySlice(rv, arg); ok {
				return err
			}
		}

		// Unknown tags are transparent: decode the content into the target.
		return d.decodeValue(rv, depth+1)
	default: // format.MajorSimple
		return d.setSimple(rv, start, arg)
	}
}

// setInt assigns an integer argument to an integer, float or big target.
// negative selects the major type 1 interpretation -1-arg.
func (d *Decoder) setInt(rv reflect.Value, start int, arg uint64, negative bool) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if arg > math.MaxInt64 {
			return decodeErrf(start, ErrOutOfRange, "integer argument %d overflows int64", arg)
		}
		v := int64(arg)
		if negative {
			v = -1 - v
		}
		if rv.OverflowInt(v) {
			return decodeErrf(start, ErrOutOfRange, "%d overflows %s", v, rv.Type())
		}
		rv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if negative {
			return decodeErrf(start, ErrOutOfRange, "negative integer into %s", rv.Type())
		}
		if rv.OverflowUint(arg) {
			return decodeErrf(start, ErrOutOfRange, "%d overflows %s", arg, rv.Type())
		}
		rv.SetUint(arg)
	case reflect.Float32, reflect.Float64:
		f := float64(arg)
		if negative {
			f = -1 - f
		}
		rv.SetFloat(f)
	default:
		return decodeErrf(start, ErrTypeMismatch, "cannot decode integer into %s", rv.Type())
	}

	return nil
}

func (d *Decoder) setBytes(rv reflect.Value, start int, p []byte) error {
	switch {
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		out := make([]byte, len(p))
		copy(out, p)
		rv.SetBytes(out)
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		if rv.Len() != len(p) {
			return decodeErrf(start, ErrOutOfRange, "byte string of %d bytes into [%d]byte", len(p), rv.Len())
		}
		reflect.Copy(rv, reflect.ValueOf(p))
	default:
		return decodeErrf(start, ErrTypeMismatch, "cannot decode byte string into %s", rv.Type())
	}

	return nil
}

// setSimple assigns a major type 7 item. The original head byte at start
// distinguishes floats from simple values.
func (d *Decoder) setSimple(rv reflect.Value, start int, arg uint64) error {
	info := d.data[start] & 0x1f

	switch info {
	case format.AddInfo16Bit:
		return d.setFloat(rv, start, halfToFloat(uint16(arg)))
	case format.AddInfo32Bit:
		return d.setFloat(rv, start, float64(math.Float32frombits(uint32(arg))))
	case format.AddInfo64Bit:
		return d.setFloat(rv, start, math.Float64frombits(arg))
	}

	switch arg {
	case format.SimpleFalse, format.SimpleTrue:
		if rv.Kind() != reflect.Bool {
			return decodeErrf(start, ErrTypeMismatch, "cannot decode boolean into %s", rv.Type())
		}
		rv.SetBool(arg == format.SimpleTrue)

		return nil
	default:
		// Null and undefined were handled before the head was read, so this
		// is an unassigned simple value.
		return decodeErrf(start, ErrTypeMismatch, "cannot decode simple(%d) into %s", arg, rv.Type())
	}
}

func (d *Decoder) setFloat(rv reflect.Value, start int, f float64) error {
	switch rv.Kind() {
	case reflect.Float64:
		rv.SetFloat(f)
	case reflect.Float32:
		if float64(float32(f)) != f && !math.IsNaN(f) {
			return decodeErrf(start, ErrOutOfRange, "%g loses precision in float32", f)
		}
		rv.SetFloat(f)
	default:
		return decodeErrf(start, ErrTypeMismatch, "cannot decode float into %s", rv.Type())
	}

	return nil
}

func (d *Decoder) decodeSeq(rv reflect.Value, start int, arg uint64, indef bool, depth int) error {
	switch rv.Kind() {
	case reflect.Slice:
		if indef {
			out := reflect.MakeSlice(rv.Type(), 0, 8)
			for {
				more, err := d.More()
				if err != nil {
					return err
				}
				if !more {
					break
				}
				el := reflect.New(rv.Type().Elem()).Elem()
				if err := d.decodeValue(el, depth+1); err != nil {
					return err
				}
				out = reflect.Append(out, el)
			}
			rv.Set(out)

			return nil
		}

		if arg > uint64(len(d.data)-d.pos) {
			return decodeErrf(start, ErrUnexpectedEnd, "array of %d elements exceeds input", arg)
		}
		out := reflect.MakeSlice(rv.Type(), int(arg), int(arg))
		for i := 0; i < int(arg); i++ {
			if err := d.decodeValue(out.Index(i), depth+1); err != nil {
				return err
			}
		}
		rv.Set(out)

		return nil
	case reflect.Array:
		n := 0
		if indef {
			for {
				more, err := d.More()
				if err != nil {
					return err
				}
				if !more {
					break
				}
				if n >= rv.Len() {
					return decodeErrf(start, ErrOutOfRange, "array longer than [%d]%s", rv.Len(), rv.Type().Elem())
				}
				if err := d.decodeValue(rv.Index(n), depth+1); err != nil {
					return err
				}
				n++
			}
		} else {
			if arg != uint64(rv.Len()) {
				return decodeErrf(start, ErrOutOfRange, "array of %d elements into %s", arg, rv.Type())
			}
			for i := 0; i < int(arg); i++ {
				if err := d.decodeValue(rv.Index(i), depth+1); err != nil {
					return err
				}
				n++
			}
		}
		if n != rv.Len() {
			return decodeErrf(start, ErrOutOfRange, "array of %d elements into %s", n, rv.Type())
		}

		return nil
	default:
		return decodeErrf(start, ErrTypeMismatch, "cannot decode array into %s", rv.Type())
	}
}

// decodeMap fills a Go map target. Duplicate keys are legal here: the last
// value wins, matching the unordered-target policy.
func (d *Decoder) decodeMap(rv reflect.Value, start int, arg uint64, indef bool, depth int) error {
	t := rv.Type()
	out := reflect.MakeMap(t)

	decodePair := func() error {
		key := reflect.New(t.Key()).Elem()
		if err := d.decodeValue(key, depth+1); err != nil {
			return err
		}
		val := reflect.New(t.Elem()).Elem()
		if err := d.decodeValue(val, depth+1); err != nil {
			return err
		}
		out.SetMapIndex(key, val)

		return nil
	}

	if indef {
		for {
			more, err := d.More()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if err := decodePair(); err != nil {
				return err
			}
		}
	} else {
		if arg > uint64(len(d.data)-d.pos)/2 {
			return decodeErrf(start, ErrUnexpectedEnd, "map of %d pairs exceeds input", arg)
		}
		for i := uint64(0); i < arg; i++ {
			if err := decodePair(); err != nil {
				return err
			}
		}
	}
	rv.Set(out)

	return nil
}

// decodeStruct fills a struct target from a map item. Keys must be text
// strings; field order on the wire is free. Duplicate keys fail, and the
// strict-fields policy turns unknown and missing keys into errors.
func (d *Decoder) decodeStruct(rv reflect.Value, start int, arg uint64, indef bool, depth int) error {
	info := cachedStructInfo(rv.Type())
	seen := make([]bool, len(info.fields))
	keys := hash.NewKeySet()

	decodePair := func() error {
		keyStart := d.pos
		key, err := d.ReadString()
		if err != nil {
			return err
		}
		if keys.Add(key) {
			return decodeErrf(keyStart, ErrDuplicateKey, "%q", key)
		}

		idx, ok := info.byName[key]
		if !ok {
			if d.strictFields {
				return decodeErrf(keyStart, ErrUnknownField, "%q in %s", key, rv.Type())
			}

			return d.skipItem(depth + 1)
		}
		seen[idx] = true

		return d.decodeValue(rv.FieldByIndex(info.fields[idx].index), depth+1)
	}

	if indef {
		for {
			more, err := d.More()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if err := decodePair(); err != nil {
				return err
			}
		}
	} else {
		if arg > uint64(len(d.data)-d.pos)/2 {
			return decodeErrf(start, ErrUnexpectedEnd, "map of %d pairs exceeds input", arg)
		}
		for i := uint64(0); i < arg; i++ {
			if err := decodePair(); err != nil {
				return err
			}
		}
	}

	if d.strictFields {
		for i, f := range info.fields {
			if !seen[i] && !f.omitEmpty {
				return decodeErrf(start, ErrMissingField, "%q in %s", f.name, rv.Type())
			}
		}
	}

	return nil
}

// decodeTagValue fills a Tag target, surfacing the tag number with its
// content decoded generically.
func (d *Decoder) decodeTagValue(rv reflect.Value, depth int) error {
	t, err := d.ReadTag()
	if err != nil {
		return err
	}

	var content any
	if isTypedArrayTag(t) {
		content, err = decodeTypedArrayValue(d, t)
	} else {
		content, err = d.decodeInterface(depth + 1)
	}
	if err != nil {
		return err
	}

	rv.Set(reflect.ValueOf(Tag{Number: t, Content: content}))

	return nil
}

// decodeTypedArraySlice tries to fill a numeric slice target from a
// typed-array tag whose head has already been consumed. It reports whether
// the target's element type matched the tag.
func (d *Decoder) decodeTypedArraySlice(rv reflect.Value, tag uint64) (bool, error) {
	elem := rv.Type().Elem().Kind()
	width, _, isFloat, _ := typedArrayLayout(tag)

	match := false
	switch elem {
	case reflect.Uint8:
		match = !isFloat && width == 1
	case reflect.Uint16:
		match = !isFloat && width == 2
	case reflect.Uint32:
		match = !isFloat && width == 4
	case reflect.Uint64:
		match = !isFloat && width == 8
	case reflect.Float32:
		match = isFloat && width == 4
	case reflect.Float64:
		match = isFloat && width == 8
	}
	if !match {
		return false, nil
	}

	v, err := decodeTypedArrayValue(d, tag)
	if err != nil {
		return true, err
	}
	rv.Set(reflect.ValueOf(v).Convert(rv.Type()))

	return true, nil
}

// decodeInterface produces the generic representation of the next item:
// uint64, int64 (or *big.Int beyond int64), []byte, string, []any,
// map[any]any, bool, nil, Undefined, Simple, float64, or a typed-array
// element slice. Non-typed-array tags are discarded and their content
// returned directly.
func (d *Decoder) decodeInterface(depth int) (any, error) {
	if depth > d.maxDepth {
		return nil, decodeErr(d.pos, ErrNestingDepthExceeded)
	}

	start := d.pos

	major, arg, indef, err := d.readHead()
	if err != nil {
		return nil, err
	}

	switch major {
	case format.MajorUnsigned:
		return arg, nil
	case format.MajorNegative:
		if arg > math.MaxInt64 {
			v := new(big.Int).SetUint64(arg)
			v.Neg(v)
			v.Sub(v, big.NewInt(1))

			return v, nil
		}

		return -1 - int64(arg), nil
	case format.MajorBytes:
		return d.readSegments(major, arg, indef, true)
	case format.MajorText:
		p, err := d.readSegments(major, arg, indef, false)
		if err != nil {
			return nil, err
		}

		return string(p), nil
	case format.MajorArray:
		return d.decodeInterfaceSeq(start, arg, indef, depth)
	case format.MajorMap:
		return d.decodeInterfaceMap(start, arg, indef, depth)
	case format.MajorTag:
		if isTypedArrayTag(arg) {
			return decodeTypedArrayValue(d, arg)
		}

		return d.decodeInterface(depth + 1)
	default: // format.MajorSimple
		info := d.data[start] & 0x1f
		switch info {
		case format.AddInfo16Bit:
			return halfToFloat(uint16(arg)), nil
		case format.AddInfo32Bit:
			return float64(math.Float32frombits(uint32(arg))), nil
		case format.AddInfo64Bit:
			return math.Float64frombits(arg), nil
		}

		switch arg {
		case format.SimpleFalse:
			return false, nil
		case format.SimpleTrue:
			return true, nil
		case format.SimpleNull:
			return nil, nil
		case format.SimpleUndefined:
			return Undefined{}, nil
		default:
			return Simple(arg), nil
		}
	}
}

func (d *Decoder) decodeInterfaceSeq(start int, arg uint64, indef bool, depth int) ([]any, error) {
	if indef {
		out := []any{}
		for {
			more, err := d.More()
			if err != nil {
				return nil, err
			}
			if !more {
				return out, nil
			}
			el, err := d.decodeInterface(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
		}
	}

	if arg > uint64(len(d.data)-d.pos) {
		return nil, decodeErrf(start, ErrUnexpectedEnd, "array of %d elements exceeds input", arg)
	}
	out := make([]any, arg)
	for i := range out {
		el, err := d.decodeInterface(depth + 1)
		if err != nil {
			return nil, err
		}
		out[i] = el
	}

	return out, nil
}

// decodeInterfaceMap builds a map[any]any. Byte-string keys are converted
// to Go strings so they stay hashable; container keys are rejected.
// Duplicate keys keep the last value.
func (d *Decoder) decodeInterfaceMap(start int, arg uint64, indef bool, depth int) (map[any]any, error) {
	if !indef && arg > uint64(len(d.data)-d.pos)/2 {
		return nil, decodeErrf(start, ErrUnexpectedEnd, "map of %d pairs exceeds input", arg)
	}

	out := make(map[any]any)

	decodePair := func() error {
		keyStart := d.pos
		key, err := d.decodeInterface(depth + 1)
		if err != nil {
			return err
		}
		switch k := key.(type) {
		case []byte:
			key = string(k)
		case []any, map[any]any, *big.Int:
			return decodeErrf(keyStart, ErrTypeMismatch, "unhashable map key type %T", key)
		}

		val, err := d.decodeInterface(depth + 1)
		if err != nil {
			return err
		}
		out[key] = val

		return nil
	}

	if indef {
		for {
			more, err := d.More()
			if err != nil {
				return nil, err
			}
			if !more {
				return out, nil
			}
			if err := decodePair(); err != nil {
				return nil, err
			}
		}
	}

	for i := uint64(0); i < arg; i++ {
		if err := decodePair(); err != nil {
			return nil, err
		}
	}

	return out, nil
}
