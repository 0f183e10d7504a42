package amf3

import (
	"errors"
	"strconv"
)

// Errors
var (
	ErrTruncated     = ErrCorrupt{errTruncated}
	ErrUnknownMarker = ErrCorrupt{errUnknownMarker}

	ErrExternalizable = ErrUnsupported{"externalizable object"}
	ErrXML            = ErrUnsupported{"XML"}
	ErrVector         = ErrUnsupported{"Vector"}
	ErrDictionary     = ErrUnsupported{"Dictionary"}
	ErrNestingTooDeep = ErrUnsupported{"value nested deeper than MaxDepth"}

	ErrBadHeader   = errors.New("amf3: bad header: not a valid AMF3 document")
	ErrBadChecksum = errors.New("amf3: document checksum mismatch")
	ErrTooLarge    = errors.New("amf3: document too large to be compressed with snappy")
)

// ErrCorrupt is returned if the AMF3 data was malformed
type ErrCorrupt struct{ Err string }

// internal constants used for corrupt
var (
	errTruncated        = "truncated document"
	errUnknownMarker    = "unknown type marker"
	errBadStringRef     = "bad string reference"
	errBadObjectRef     = "bad object reference"
	errBadTraitsRef     = "bad traits reference"
	errTrailingData     = "trailing data after value"
	errTooDeep          = "nesting too deep"
	errBadReferenceType = "reference points to a value of another type"
	errBadVarint        = "bad varint"
	errBadOffset        = "bad offset"
)

func (c ErrCorrupt) Error() string { return "amf3: corrupt document: " + c.Err }

// ErrUnsupported is returned for AMF3 features and Go types this package does
// not handle
type ErrUnsupported struct{ Feature string }

func (u ErrUnsupported) Error() string { return "amf3: unsupported " + u.Feature }

// RangeError is returned when a length, index or header does not fit in a U29
type RangeError struct{ Value int64 }

func (r *RangeError) Error() string {
	return "amf3: U29 out of range: " + strconv.FormatInt(r.Value, 10)
}
