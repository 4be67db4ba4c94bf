package cbor

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"sync"
)

// Encode writes any Go value as one CBOR data item.
//
// The mapping follows the CBOR data model: booleans and nil map to simple
// values, integers to major types 0/1 with the shortest head, floats to the
// configured float rule, strings to text strings, []byte to byte strings,
// slices and arrays to arrays, and maps and structs to maps. Struct fields
// honor `cbor:"name,omitempty"` tags and are emitted in declaration order.
//
// Tag, Simple and Undefined values round-trip their wire forms; *big.Int
// covers the integer range beyond int64/uint64.
func (e *Encoder) Encode(v any) error {
	switch t := v.(type) {
	case nil:
		return e.WriteNull()
	case bool:
		return e.WriteBool(t)
	case int:
		return e.WriteInt(int64(t))
	case int8:
		return e.WriteInt(int64(t))
	case int16:
		return e.WriteInt(int64(t))
	case int32:
		return e.WriteInt(int64(t))
	case int64:
		return e.WriteInt(t)
	case uint:
		return e.WriteUint(uint64(t))
	case uint8:
		return e.WriteUint(uint64(t))
	case uint16:
		return e.WriteUint(uint64(t))
	case uint32:
		return e.WriteUint(uint64(t))
	case uint64:
		return e.WriteUint(t)
	case float32:
		return e.WriteFloat64(float64(t))
	case float64:
		return e.WriteFloat64(t)
	case string:
		return e.WriteString(t)
	case []byte:
		return e.WriteBytes(t)
	case Simple:
		return e.WriteSimple(t)
	case Undefined:
		return e.WriteUndefined()
	case Tag:
		return e.encodeTag(t)
	case *Tag:
		return e.encodeTag(*t)
	case *big.Int:
		return e.WriteBigInt(t)
	case []any:
		if err := e.WriteArrayHeader(len(t)); err != nil {
			return err
		}
		for _, el := range t {
			if err := e.Encode(el); err != nil {
				return err
			}
		}

		return nil
	}

	return e.encodeReflect(reflect.ValueOf(v))
}

func (e *Encoder) encodeTag(t Tag) error {
	if err := e.WriteTag(t.Number); err != nil {
		return err
	}

	return e.Encode(t.Content)
}

var (
	bigIntType    = reflect.TypeOf(big.Int{})
	tagGoType     = reflect.TypeOf(Tag{})
	simpleGoType  = reflect.TypeOf(Simple(0))
	undefinedType = reflect.TypeOf(Undefined{})
)

func (e *Encoder) encodeReflect(rv reflect.Value) error {
	switch rv.Type() {
	case bigIntType:
		v := rv.Interface().(big.Int)

		return e.WriteBigInt(&v)
	case tagGoType:
		return e.encodeTag(rv.Interface().(Tag))
	case simpleGoType:
		return e.WriteSimple(rv.Interface().(Simple))
	case undefinedType:
		return e.WriteUndefined()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return e.WriteBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.WriteInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.WriteUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return e.WriteFloat64(rv.Float())
	case reflect.String:
		return e.WriteString(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.WriteBytes(rv.Bytes())
		}

		return e.encodeSeq(rv)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// A byte array is a byte string; stage it through a slice since
			// array values are not always addressable.
			p := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(p), rv)

			return e.WriteBytes(p)
		}

		return e.encodeSeq(rv)
	case reflect.Map:
		return e.encodeMap(rv)
	case reflect.Struct:
		return e.encodeStruct(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return e.WriteNull()
		}

		return e.encodeReflect(rv.Elem())
	default:
		return fmt.Errorf("cbor: unsupported type %s", rv.Type())
	}
}

func (e *Encoder) encodeSeq(rv reflect.Value) error {
	n := rv.Len()
	if err := e.WriteArrayHeader(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encodeReflect(rv.Index(i)); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeMap(rv reflect.Value) error {
	if err := e.WriteMapHeader(rv.Len()); err != nil {
		return err
	}

	iter := rv.MapRange()
	for iter.Next() {
		if err := e.encodeReflect(iter.Key()); err != nil {
			return err
		}
		if err := e.encodeReflect(iter.Value()); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeStruct(rv reflect.Value) error {
	info := cachedStructInfo(rv.Type())

	n := 0
	for _, f := range info.fields {
		if f.omitEmpty && rv.FieldByIndex(f.index).IsZero() {
			continue
		}
		n++
	}

	if err := e.WriteMapHeader(n); err != nil {
		return err
	}

	for _, f := range info.fields {
		fv := rv.FieldByIndex(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		if err := e.WriteString(f.name); err != nil {
			return err
		}
		if err := e.encodeReflect(fv); err != nil {
			return err
		}
	}

	return nil
}

// structField describes one encodable struct field.
type structField struct {
	name      string
	index     []int
	omitEmpty bool
}

// structInfo caches the field layout of a struct type. byName maps a wire
// key to the field's position in fields.
type structInfo struct {
	fields []structField
	byName map[string]int
}

var structInfoCache sync.Map // reflect.Type -> *structInfo

// cachedStructInfo parses and caches `cbor` struct tags for t.
// Fields tagged "-" and unexported fields are skipped.
func cachedStructInfo(t reflect.Type) *structInfo {
	if cached, ok := structInfoCache.Load(t); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}

		name := f.Name
		omitEmpty := false
		if tag, ok := f.Tag.Lookup("cbor"); ok {
			if tag == "-" {
				continue
			}
			base, opts, _ := strings.Cut(tag, ",")
			if base != "" {
				name = base
			}
			for _, opt := range strings.Split(opts, ",") {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		info.fields = append(info.fields, structField{
			name:      name,
			index:     f.Index,
			omitEmpty: omitEmpty,
		})
	}
	for i := range info.fields {
		info.byName[info.fields[i].name] = i
	}

	actual, _ := structInfoCache.LoadOrStore(t, info)

	return actual.(*structInfo)
}
