package amf3

import (
	"math"
	"time"
)

// Value is any decoded AMF3 value: Undefined, nil, bool, int, float64,
// string, *Date, *ByteArray, *Array or *Object.
type Value = interface{}

// Undefined represents ActionScript's "undefined" value
type Undefined struct{}

// Date is an instant in milliseconds since the Unix epoch
type Date struct {
	Millis float64
}

// NewDate returns the Date for t
func NewDate(t time.Time) *Date {
	return &Date{Millis: float64(t.UnixMilli()) + float64(t.Nanosecond()%1e6)/1e6}
}

// Time converts d to a time.Time. Fractions below a nanosecond are dropped.
func (d *Date) Time() time.Time {
	sec, frac := math.Modf(d.Millis / 1000)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// ByteArray is a raw byte sequence (flash.utils.ByteArray)
type ByteArray []byte

// Array is an AMF3 array: a dense part indexed 0..n-1 plus string-keyed
// associative members.
type Array struct {
	Dense []Value
	Assoc map[string]Value
}

// NewArray returns an Array holding elems as its dense part
func NewArray(elems ...Value) *Array {
	if elems == nil {
		elems = []Value{}
	}
	return &Array{Dense: elems}
}

// Traits describes the class shape of a decoded object
type Traits struct {
	ClassName      string
	Sealed         []string
	Externalizable bool
	Dynamic        bool
}

// Object is an AMF3 object. Traits is only set on decoded objects; the
// encoder always writes anonymous dynamic objects.
type Object struct {
	Traits  *Traits
	Members map[string]Value
}

// NewObject returns an anonymous object with the given members
func NewObject(members map[string]Value) *Object {
	if members == nil {
		members = make(map[string]Value)
	}
	return &Object{Members: members}
}
