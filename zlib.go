package amf3

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor compresses an AMF3 document using the zlib format.
type ZlibCompressor struct {
	Level int // compression level
}

// Zlib constants
const (
	ZlibNoCompression      = zlib.NoCompression
	ZlibBestSpeed          = zlib.BestSpeed
	ZlibBestCompression    = zlib.BestCompression
	ZlibDefaultCompression = zlib.DefaultCompression
)

var zlibWriterPools = make(map[int]*sync.Pool)

func init() {
	// -1 => 9
	for i := zlib.DefaultCompression; i <= zlib.BestCompression; i++ {
		level := i
		zlibWriterPools[i] = &sync.Pool{
			New: func() interface{} {
				zw, _ := zlib.NewWriterLevel(nil, level)
				return zw
			},
		}
	}
}

func (c ZlibCompressor) compress(buf []byte) ([]byte, error) {
	// varint length of the body, then the framed deflate stream
	pool := zlibWriterPools[c.Level]
	if pool == nil {
		return nil, fmt.Errorf("amf3: unknown zlib level %d", c.Level)
	}

	var comp bytes.Buffer
	zw := pool.Get().(*zlib.Writer)
	defer pool.Put(zw)
	zw.Reset(&comp)

	if _, err := zw.Write(buf); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	head := varint(nil, uint(len(buf)))
	return appendFrame(head, comp.Bytes()), nil
}

func (c ZlibCompressor) decompress(buf []byte) ([]byte, error) {
	// Read the claimed length of the uncompressed document
	uln, usz, err := varintdecode(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[usz:]

	if uln < 0 || uln > math.MaxInt32 {
		return nil, ErrCorrupt{errBadOffset}
	}

	if buf, err = readFrame(buf); err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	// the claimed length is untrusted: deflate cannot expand a block more
	// than 1032 times, so never reserve more than that up front
	hint := uln
	if limit := 1032 * len(buf); hint > limit {
		hint = limit
	}

	dec := bytes.NewBuffer(make([]byte, 0, hint))
	if _, err := dec.ReadFrom(io.LimitReader(zr, int64(uln)+1)); err != nil {
		return nil, err
	}

	if dec.Len() != uln {
		return nil, ErrCorrupt{errBadOffset}
	}

	return dec.Bytes(), nil
}
