package amf3

import (
	"encoding/binary"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

func reflectValueOf(v interface{}) reflect.Value {

	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}
	return rv

}

// An Encoder encodes Go values as AMF3. Apart from MaxDepth its fields only
// affect EncodeDocument; Encode always produces plain AMF3.
type Encoder struct {
	Compression          compressor // optional compressor for documents
	CompressionThreshold int        // documents with smaller bodies are stored raw
	Checksum             bool       // add a SipHash checksum of the body to documents
	MaxDepth             int        // maximum nesting of the value, defaultMaxDepth if 0
}

// NewEncoder returns an encoder with default flags
func NewEncoder() *Encoder {
	return &Encoder{
		CompressionThreshold: defaultCompressionThreshold,
		MaxDepth:             defaultMaxDepth,
	}
}

// Encode returns the AMF3 encoding of v
func Encode(v interface{}) ([]byte, error) {
	return NewEncoder().Encode(v)
}

// Encode returns the AMF3 encoding of v. Each call starts with empty
// reference tables, so an Encoder may be shared between goroutines.
func (e *Encoder) Encode(v interface{}) ([]byte, error) {
	st := encodeState{
		b:        make([]byte, 0, 32),
		strTable: make(map[string]int),
		ptrTable: make(map[refKey]int),
		maxDepth: e.MaxDepth,
	}

	if st.maxDepth <= 0 {
		st.maxDepth = defaultMaxDepth
	}

	if err := st.encode(reflectValueOf(v), refKey{}); err != nil {
		return nil, err
	}

	return st.b, nil
}

// encodeState holds everything that lives for a single Encode call
type encodeState struct {
	b        []byte
	strTable map[string]int
	ptrTable map[refKey]int
	nobjects int // entries in the object table so far

	// pointers to pointers and interfaces carry no identity, so cycles
	// through them are only stopped here
	depth    int
	maxDepth int
}

// refKey identifies an instance for the object table. The zero key means the
// value has no identity and always gets a fresh entry.
type refKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

func ptrKey(rv reflect.Value) refKey {
	if rv.Type().Elem().Size() == 0 {
		// distinct zero-sized allocations may share an address
		return refKey{}
	}
	return refKey{ptr: rv.Pointer(), typ: rv.Type()}
}

func sliceKey(rv reflect.Value) refKey {
	if rv.Len() == 0 {
		return refKey{}
	}
	return refKey{ptr: rv.Pointer(), typ: rv.Type(), len: rv.Len()}
}

func mapKey(rv reflect.Value) refKey {
	return refKey{ptr: rv.Pointer(), typ: rv.Type()}
}

func (st *encodeState) encode(rv reflect.Value, key refKey) error {

	st.depth++
	defer func() { st.depth-- }()

	if st.depth > st.maxDepth {
		return ErrNestingTooDeep
	}

	if !rv.IsValid() {
		st.b = append(st.b, typeNULL)
		return nil
	}

	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case Undefined:
			st.b = append(st.b, typeUNDEFINED)
			return nil
		case *Undefined:
			if v == nil {
				st.b = append(st.b, typeNULL)
			} else {
				st.b = append(st.b, typeUNDEFINED)
			}
			return nil
		case *Date:
			if v == nil {
				st.b = append(st.b, typeNULL)
				return nil
			}
			return st.encodeDate(v.Millis, ptrKey(rv))
		case Date:
			return st.encodeDate(v.Millis, key)
		case *time.Time:
			if v == nil {
				st.b = append(st.b, typeNULL)
				return nil
			}
			return st.encodeDate(NewDate(*v).Millis, ptrKey(rv))
		case time.Time:
			return st.encodeDate(NewDate(v).Millis, key)
		case *ByteArray:
			if v == nil {
				st.b = append(st.b, typeNULL)
				return nil
			}
			return st.encodeBytes(*v, ptrKey(rv))
		case *Array:
			if v == nil {
				st.b = append(st.b, typeNULL)
				return nil
			}
			return st.encodeArray(v, ptrKey(rv))
		case Array:
			return st.encodeArray(&v, key)
		case *Object:
			if v == nil {
				st.b = append(st.b, typeNULL)
				return nil
			}
			return st.encodeObject(v, ptrKey(rv))
		case Object:
			return st.encodeObject(&v, key)
		}
	}

	switch rk := rv.Kind(); rk {

	case reflect.Bool:
		st.encodeBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		st.encodeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= maxInt29 {
			st.encodeInt(int64(u))
		} else {
			st.encodeDouble(float64(u))
		}
	case reflect.Float32, reflect.Float64:
		st.encodeNumber(rv.Float())
	case reflect.String:
		st.b = append(st.b, typeSTRING)
		return st.encodeString(rv.String())

	case reflect.Slice:
		if rv.IsNil() {
			st.b = append(st.b, typeNULL)
			return nil
		}
		if key == (refKey{}) {
			key = sliceKey(rv)
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return st.encodeBytes(rv.Bytes(), key)
		}
		return st.encodeSlice(rv, key)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			byt := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(byt), rv)
			return st.encodeBytes(byt, key)
		}
		return st.encodeSlice(rv, key)

	case reflect.Map:
		if rv.IsNil() {
			st.b = append(st.b, typeNULL)
			return nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return ErrUnsupported{"map key type " + rv.Type().Key().String()}
		}
		if key == (refKey{}) {
			key = mapKey(rv)
		}
		return st.encodeMap(rv, key)

	case reflect.Struct:
		return st.encodeStruct(rv, key)

	case reflect.Interface:
		if rv.IsNil() {
			st.b = append(st.b, typeNULL)
			return nil
		}
		return st.encode(rv.Elem(), refKey{})

	case reflect.Ptr:
		if rv.IsNil() {
			st.b = append(st.b, typeNULL)
			return nil
		}

		switch rv.Elem().Kind() {
		case reflect.Struct, reflect.Array, reflect.Slice, reflect.Map:
			return st.encode(rv.Elem(), ptrKey(rv))
		}

		// scalars and pointers to pointers have no identity of their own
		return st.encode(rv.Elem(), refKey{})

	default:
		return ErrUnsupported{"Go type " + rv.Type().String()}
	}

	return nil
}

// trackRef looks key up in the object table. When the instance was seen
// before, a reference is emitted and true returned. Otherwise the instance
// takes the next table slot; this happens before any of its members are
// written so that they can refer back to it.
func (st *encodeState) trackRef(key refKey) (bool, error) {
	if key.ptr != 0 {
		if idx, ok := st.ptrTable[key]; ok {
			var err error
			st.b, err = appendHeader(st.b, idx, false)
			return true, err
		}
		st.ptrTable[key] = st.nobjects
	}

	st.nobjects++
	return false, nil
}

func (st *encodeState) encodeBool(bo bool) {

	if bo {
		st.b = append(st.b, typeTRUE)
	} else {
		st.b = append(st.b, typeFALSE)
	}
}

func (st *encodeState) encodeInt(i int64) {
	if i < minInt29 || i > maxInt29 {
		st.encodeDouble(float64(i))
		return
	}

	st.b = append(st.b, typeINTEGER)
	st.b = appendI29(st.b, i)
}

// encodeNumber picks the integer marker for integral values that fit in 29
// bits and the double marker for everything else
func (st *encodeState) encodeNumber(f float64) {
	if f == math.Trunc(f) && f >= minInt29 && f <= maxInt29 && !(f == 0 && math.Signbit(f)) {
		st.b = append(st.b, typeINTEGER)
		st.b = appendI29(st.b, int64(f))
		return
	}

	st.encodeDouble(f)
}

func (st *encodeState) encodeDouble(f float64) {
	st.b = append(st.b, typeDOUBLE)
	st.b = binary.LittleEndian.AppendUint64(st.b, math.Float64bits(f))
}

// encodeString writes s without a marker, as used for values, keys and
// class names alike
func (st *encodeState) encodeString(s string) error {
	var err error

	if s != "" {
		if idx, ok := st.strTable[s]; ok {
			st.b, err = appendHeader(st.b, idx, false)
			return err
		}

		// save for later
		st.strTable[s] = len(st.strTable)
	}

	st.b, err = appendHeader(st.b, len(s), true)
	if err != nil {
		return err
	}

	st.b = append(st.b, s...)

	return nil
}

func (st *encodeState) encodeDate(millis float64, key refKey) error {
	st.b = append(st.b, typeDATE)

	if seen, err := st.trackRef(key); seen || err != nil {
		return err
	}

	st.b, _ = appendU29(st.b, flagInline)
	st.b = binary.LittleEndian.AppendUint64(st.b, math.Float64bits(millis))

	return nil
}

func (st *encodeState) encodeBytes(byt []byte, key refKey) error {
	st.b = append(st.b, typeBYTE_ARRAY)

	if seen, err := st.trackRef(key); seen || err != nil {
		return err
	}

	var err error
	st.b, err = appendHeader(st.b, len(byt), true)
	if err != nil {
		return err
	}

	st.b = append(st.b, byt...)

	return nil
}

func (st *encodeState) encodeArray(arr *Array, key refKey) error {
	st.b = append(st.b, typeARRAY)

	if seen, err := st.trackRef(key); seen || err != nil {
		return err
	}

	var err error
	st.b, err = appendHeader(st.b, len(arr.Dense), true)
	if err != nil {
		return err
	}

	for _, k := range sortedKeys(arr.Assoc) {
		if isIndexKey(k) {
			// a key naming a dense slot is overwritten by it on decode;
			// past the dense part it would need a sparse array
			if i, err := strconv.Atoi(k); err == nil && i < len(arr.Dense) {
				continue
			}
			return ErrUnsupported{"index key " + strconv.Quote(k) + " past the dense part of an array"}
		}
		if err := st.encodeMember(k, reflect.ValueOf(arr.Assoc[k])); err != nil {
			return err
		}
	}

	if err := st.encodeString(""); err != nil {
		return err
	}

	for _, v := range arr.Dense {
		if err := st.encode(reflect.ValueOf(v), refKey{}); err != nil {
			return err
		}
	}

	return nil
}

func (st *encodeState) encodeSlice(arr reflect.Value, key refKey) error {
	st.b = append(st.b, typeARRAY)

	if seen, err := st.trackRef(key); seen || err != nil {
		return err
	}

	l := arr.Len()

	var err error
	st.b, err = appendHeader(st.b, l, true)
	if err != nil {
		return err
	}

	// no associative part
	if err := st.encodeString(""); err != nil {
		return err
	}

	for i := 0; i < l; i++ {
		if err := st.encode(arr.Index(i), refKey{}); err != nil {
			return err
		}
	}

	return nil
}

// beginObject writes the marker and, for a new instance, the anonymous
// dynamic traits. It reports false when a reference was written instead.
func (st *encodeState) beginObject(key refKey) (bool, error) {
	st.b = append(st.b, typeOBJECT)

	if seen, err := st.trackRef(key); seen || err != nil {
		return false, err
	}

	st.b, _ = appendU29(st.b, anonymousObjectHeader)

	// class name: anonymous
	return true, st.encodeString("")
}

func (st *encodeState) encodeMember(k string, v reflect.Value) error {
	if k == "" {
		// the empty string terminates the member list
		return ErrUnsupported{"empty member name"}
	}
	if err := st.encodeString(k); err != nil {
		return err
	}
	return st.encode(v, refKey{})
}

func (st *encodeState) encodeObject(obj *Object, key refKey) error {
	if inline, err := st.beginObject(key); !inline || err != nil {
		return err
	}

	for _, k := range sortedKeys(obj.Members) {
		if err := st.encodeMember(k, reflect.ValueOf(obj.Members[k])); err != nil {
			return err
		}
	}

	return st.encodeString("")
}

func (st *encodeState) encodeMap(m reflect.Value, key refKey) error {
	if inline, err := st.beginObject(key); !inline || err != nil {
		return err
	}

	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		if err := st.encodeMember(k.String(), m.MapIndex(k)); err != nil {
			return err
		}
	}

	return st.encodeString("")
}

func (st *encodeState) encodeStruct(s reflect.Value, key refKey) error {
	if inline, err := st.beginObject(key); !inline || err != nil {
		return err
	}

	for _, t := range structTags.Get(s) {
		f := s.Field(t.id)
		if t.omitEmpty && isEmptyValue(f) {
			continue
		}
		if err := st.encodeMember(t.name, f); err != nil {
			return err
		}
	}

	return st.encodeString("")
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isIndexKey reports whether k matches ^(0|[1-9][0-9]*)$
func isIndexKey(k string) bool {
	if k == "" || (k[0] == '0' && len(k) > 1) {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return false
		}
	}
	return true
}
