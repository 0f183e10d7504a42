package amf3

import (
	"encoding/binary"
	"fmt"
	"math"
)

// A Decoder reads AMF3 values from byte buffers
type Decoder struct {
	MaxDepth int // maximum nesting of arrays and objects, defaultMaxDepth if 0
}

// NewDecoder returns a decoder with default flags
func NewDecoder() *Decoder {
	return &Decoder{
		MaxDepth: defaultMaxDepth,
	}
}

// Decode parses b, which must hold exactly one AMF3 value
func Decode(b []byte) (Value, error) {
	return NewDecoder().Decode(b)
}

// DecodePrefix parses the AMF3 value at the start of b and returns it
// together with the number of bytes it occupied
func DecodePrefix(b []byte) (Value, int, error) {
	return NewDecoder().DecodePrefix(b)
}

// Decode parses b, which must hold exactly one AMF3 value
func (d *Decoder) Decode(b []byte) (Value, error) {
	v, n, err := d.DecodePrefix(b)
	if err != nil {
		return nil, err
	}

	if n != len(b) {
		return nil, ErrCorrupt{errTrailingData}
	}

	return v, nil
}

// DecodePrefix parses the AMF3 value at the start of b. Bytes after the value
// are left alone; a following value must be decoded with its own call, as
// reference tables never carry over from one call to the next.
func (d *Decoder) DecodePrefix(b []byte) (Value, int, error) {
	st := decodeState{
		b:        b,
		maxDepth: d.MaxDepth,
	}

	if st.maxDepth <= 0 {
		st.maxDepth = defaultMaxDepth
	}

	v, err := st.decode()
	if err != nil {
		return nil, 0, err
	}

	return v, st.idx, nil
}

// decodeState holds everything that lives for a single decode call
type decodeState struct {
	b   []byte
	idx int

	strings []string
	objects []Value
	traits  []*Traits

	depth    int
	maxDepth int
}

func (st *decodeState) decode() (Value, error) {
	st.depth++
	defer func() { st.depth-- }()

	if st.depth > st.maxDepth {
		return nil, ErrCorrupt{errTooDeep}
	}

	startIdx := st.idx

	marker, err := st.readByte()
	if err != nil {
		return nil, err
	}

	switch marker {
	case typeUNDEFINED:
		return Undefined{}, nil
	case typeNULL:
		return nil, nil
	case typeFALSE:
		return false, nil
	case typeTRUE:
		return true, nil
	case typeINTEGER:
		n, err := st.readU29()
		if err != nil {
			return nil, err
		}
		return i29(n), nil
	case typeDOUBLE:
		return st.readDouble()
	case typeSTRING:
		return st.decodeString()
	case typeDATE:
		return st.decodeDate()
	case typeARRAY:
		return st.decodeArray()
	case typeOBJECT:
		return st.decodeObject()
	case typeBYTE_ARRAY:
		return st.decodeByteArray()
	case typeXML_DOC, typeXML:
		return nil, ErrXML
	case typeVECTOR_INT, typeVECTOR_UINT, typeVECTOR_DOUBLE, typeVECTOR_OBJECT:
		return nil, ErrVector
	case typeDICTIONARY:
		return nil, ErrDictionary
	}

	return nil, fmt.Errorf("%w 0x%02x at offset %d", ErrUnknownMarker, marker, startIdx)
}

func (st *decodeState) readByte() (byte, error) {
	if st.idx >= len(st.b) {
		return 0, ErrTruncated
	}
	b := st.b[st.idx]
	st.idx++
	return b, nil
}

func (st *decodeState) readU29() (uint32, error) {
	n, sz, err := u29decode(st.b[st.idx:])
	if err != nil {
		return 0, err
	}
	st.idx += sz
	return n, nil
}

// readBytes returns the next ln bytes of the input without copying them
func (st *decodeState) readBytes(ln int) ([]byte, error) {
	if ln < 0 || ln > len(st.b)-st.idx {
		return nil, ErrTruncated
	}
	b := st.b[st.idx : st.idx+ln]
	st.idx += ln
	return b, nil
}

func (st *decodeState) readDouble() (float64, error) {
	b, err := st.readBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// objectRef resolves a reference header against the object table
func (st *decodeState) objectRef(header uint32) (Value, error) {
	idx := int(header >> 1)
	if idx >= len(st.objects) {
		return nil, ErrCorrupt{errBadObjectRef}
	}
	return st.objects[idx], nil
}

func (st *decodeState) decodeString() (string, error) {
	header, err := st.readU29()
	if err != nil {
		return "", err
	}

	if header&flagInline == 0 {
		idx := int(header >> 1)
		if idx >= len(st.strings) {
			return "", ErrCorrupt{errBadStringRef}
		}
		return st.strings[idx], nil
	}

	b, err := st.readBytes(int(header >> 1))
	if err != nil {
		return "", err
	}

	s := string(b)
	if s != "" {
		st.strings = append(st.strings, s)
	}

	return s, nil
}

func (st *decodeState) decodeDate() (*Date, error) {
	header, err := st.readU29()
	if err != nil {
		return nil, err
	}

	if header&flagInline == 0 {
		v, err := st.objectRef(header)
		if err != nil {
			return nil, err
		}
		d, ok := v.(*Date)
		if !ok {
			return nil, ErrCorrupt{errBadReferenceType}
		}
		return d, nil
	}

	millis, err := st.readDouble()
	if err != nil {
		return nil, err
	}

	d := &Date{Millis: millis}
	st.objects = append(st.objects, d)

	return d, nil
}

func (st *decodeState) decodeByteArray() (*ByteArray, error) {
	header, err := st.readU29()
	if err != nil {
		return nil, err
	}

	if header&flagInline == 0 {
		v, err := st.objectRef(header)
		if err != nil {
			return nil, err
		}
		ba, ok := v.(*ByteArray)
		if !ok {
			return nil, ErrCorrupt{errBadReferenceType}
		}
		return ba, nil
	}

	b, err := st.readBytes(int(header >> 1))
	if err != nil {
		return nil, err
	}

	// the input buffer belongs to the caller
	ba := make(ByteArray, len(b))
	copy(ba, b)
	st.objects = append(st.objects, &ba)

	return &ba, nil
}

func (st *decodeState) decodeArray() (*Array, error) {
	header, err := st.readU29()
	if err != nil {
		return nil, err
	}

	if header&flagInline == 0 {
		v, err := st.objectRef(header)
		if err != nil {
			return nil, err
		}
		arr, ok := v.(*Array)
		if !ok {
			return nil, ErrCorrupt{errBadReferenceType}
		}
		return arr, nil
	}

	ln := int(header >> 1)

	// every element takes at least one byte
	if ln > len(st.b)-st.idx {
		return nil, ErrTruncated
	}

	arr := &Array{Dense: make([]Value, 0, ln)}

	// registered before the members so that they can point back at it
	st.objects = append(st.objects, arr)

	for {
		key, err := st.decodeString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}

		v, err := st.decode()
		if err != nil {
			return nil, err
		}

		if arr.Assoc == nil {
			arr.Assoc = make(map[string]Value)
		}
		arr.Assoc[key] = v
	}

	for i := 0; i < ln; i++ {
		v, err := st.decode()
		if err != nil {
			return nil, err
		}
		arr.Dense = append(arr.Dense, v)
	}

	return arr, nil
}

func (st *decodeState) decodeTraits(header uint32) (*Traits, error) {
	if header&flagInlineTraits == 0 {
		idx := int(header >> 2)
		if idx >= len(st.traits) {
			return nil, ErrCorrupt{errBadTraitsRef}
		}
		return st.traits[idx], nil
	}

	t := &Traits{
		Externalizable: header&flagExternalizable != 0,
		Dynamic:        header&flagDynamic != 0,
	}

	// class aliases are not supported, the name is kept for the caller only
	className, err := st.decodeString()
	if err != nil {
		return nil, err
	}
	t.ClassName = className

	count := int(header >> 4)
	if count > len(st.b)-st.idx {
		return nil, ErrTruncated
	}

	t.Sealed = make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := st.decodeString()
		if err != nil {
			return nil, err
		}
		t.Sealed = append(t.Sealed, name)
	}

	st.traits = append(st.traits, t)

	return t, nil
}

func (st *decodeState) decodeObject() (*Object, error) {
	header, err := st.readU29()
	if err != nil {
		return nil, err
	}

	if header&flagInline == 0 {
		v, err := st.objectRef(header)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*Object)
		if !ok {
			return nil, ErrCorrupt{errBadReferenceType}
		}
		return obj, nil
	}

	t, err := st.decodeTraits(header)
	if err != nil {
		return nil, err
	}

	obj := &Object{
		Traits:  t,
		Members: make(map[string]Value, len(t.Sealed)),
	}
	st.objects = append(st.objects, obj)

	if t.Externalizable {
		return nil, ErrExternalizable
	}

	for _, key := range t.Sealed {
		v, err := st.decode()
		if err != nil {
			return nil, err
		}
		obj.Members[key] = v
	}

	if !t.Dynamic {
		return obj, nil
	}

	for {
		key, err := st.decodeString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}

		v, err := st.decode()
		if err != nil {
			return nil, err
		}
		obj.Members[key] = v
	}

	return obj, nil
}
