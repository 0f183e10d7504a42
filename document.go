package amf3

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

// A document wraps an AMF3 body for storage:
//
//	magic (4 bytes LE) | doctype<<4 | flags | [siphash (8 bytes LE)] | body
const magicHeaderBytes = uint32(0x666d613d) // "=amf"

const headerSize = 5

type documentType byte

const (
	docRaw documentType = iota
	docSnappy
	docSnappyIncremental
	docZlib
	docZstd
)

const flagChecksum = 0x01

const defaultCompressionThreshold = 1024

// fixed key: the checksum guards against corruption, not tampering
const (
	checksumK0 = 0x616d66332d646f63
	checksumK1 = 0x756d656e742d7631
)

type compressor interface {
	compress(b []byte) ([]byte, error)
	decompress(b []byte) ([]byte, error)
}

func compressorType(c compressor) (documentType, error) {
	switch c := c.(type) {
	case SnappyCompressor:
		if c.Incremental {
			return docSnappyIncremental, nil
		}
		return docSnappy, nil
	case ZlibCompressor:
		return docZlib, nil
	case ZstdCompressor:
		return docZstd, nil
	}
	return 0, fmt.Errorf("amf3: unknown compressor %T", c)
}

// EncodeDocument encodes v and wraps it in a document, compressing the body
// with e.Compression when it is at least e.CompressionThreshold bytes long
func (e *Encoder) EncodeDocument(v interface{}) ([]byte, error) {
	body, err := e.Encode(v)
	if err != nil {
		return nil, err
	}

	b := make([]byte, headerSize, headerSize+8+len(body))
	binary.LittleEndian.PutUint32(b[:4], magicHeaderBytes)

	var flags byte
	if e.Checksum {
		flags |= flagChecksum
		b = binary.LittleEndian.AppendUint64(b, siphash.Hash(checksumK0, checksumK1, body))
	}

	doctype := docRaw
	if e.Compression != nil && len(body) >= e.CompressionThreshold {
		if doctype, err = compressorType(e.Compression); err != nil {
			return nil, err
		}
		if body, err = e.Compression.compress(body); err != nil {
			return nil, err
		}
	}

	b[4] = byte(doctype)<<4 | flags

	return append(b, body...), nil
}

// DecodeDocument unwraps a document produced by EncodeDocument and decodes
// its body
func (d *Decoder) DecodeDocument(b []byte) (Value, error) {
	if len(b) < headerSize || binary.LittleEndian.Uint32(b[:4]) != magicHeaderBytes {
		return nil, ErrBadHeader
	}

	doctype := documentType(b[4] >> 4)
	flags := b[4] & 0x0f
	b = b[headerSize:]

	var sum uint64
	if flags&flagChecksum != 0 {
		if len(b) < 8 {
			return nil, ErrTruncated
		}
		sum = binary.LittleEndian.Uint64(b[:8])
		b = b[8:]
	}

	var err error
	switch doctype {
	case docRaw:
		// nothing
	case docSnappy:
		b, err = SnappyCompressor{}.decompress(b)
	case docSnappyIncremental:
		b, err = SnappyCompressor{Incremental: true}.decompress(b)
	case docZlib:
		b, err = ZlibCompressor{}.decompress(b)
	case docZstd:
		b, err = ZstdCompressor{}.decompress(b)
	default:
		return nil, fmt.Errorf("%w: document type %d not supported", ErrBadHeader, doctype)
	}

	if err != nil {
		return nil, err
	}

	if flags&flagChecksum != 0 && siphash.Hash(checksumK0, checksumK1, b) != sum {
		return nil, ErrBadChecksum
	}

	return d.Decode(b)
}

func varint(by []byte, n uint) []uint8 {

	for n >= 0x80 {
		b := byte(n) | 0x80
		by = append(by, b)
		n >>= 7
	}

	return append(by, byte(n))
}

func varintdecode(by []byte) (n int, sz int, err error) {

	s := uint(0) // shift count
	for i, b := range by {
		if s > 63 {
			return 0, 0, ErrCorrupt{errBadVarint}
		}

		n |= int(b&0x7f) << s
		s += 7

		if (b & 0x80) == 0 {
			return n, i + 1, nil
		}
	}

	// byte without continuation bit
	return 0, 0, ErrTruncated
}

// longest varint for a 64-bit length
const binaryMaxVarintLen = binary.MaxVarintLen64

// appendFrame appends blob prefixed with its varint length. Compressors use
// it so that a body carries its own extent.
func appendFrame(by []byte, blob []byte) []byte {
	by = varint(by, uint(len(blob)))
	return append(by, blob...)
}

// readFrame returns the blob framed at the start of by
func readFrame(by []byte) ([]byte, error) {
	ln, sz, err := varintdecode(by)
	if err != nil {
		return nil, err
	}

	if ln < 0 || ln > len(by)-sz {
		return nil, ErrCorrupt{errBadOffset}
	}

	return by[sz : sz+ln], nil
}
