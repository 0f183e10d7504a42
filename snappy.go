package amf3

import (
	"math"

	"github.com/golang/snappy"
)

// SnappyCompressor compresses document bodies as a single Snappy block.
type SnappyCompressor struct {
	Incremental bool // frame the block with its varint length
}

// a Snappy copy element turns 3 bytes into at most 64
const snappyMaxExpansion = 32

func (c SnappyCompressor) compress(body []byte) ([]byte, error) {
	if uint64(len(body)) >= math.MaxUint32 {
		return nil, ErrTooLarge
	}

	block := snappy.Encode(nil, body)
	if !c.Incremental {
		return block, nil
	}

	return appendFrame(make([]byte, 0, len(block)+binaryMaxVarintLen), block), nil
}

func (c SnappyCompressor) decompress(b []byte) ([]byte, error) {
	if c.Incremental {
		var err error
		if b, err = readFrame(b); err != nil {
			return nil, err
		}
	}

	// the block header states the decoded size, which is allocated up front
	n, err := snappy.DecodedLen(b)
	if err != nil {
		return nil, err
	}
	if n > snappyMaxExpansion*len(b) {
		return nil, ErrCorrupt{errBadOffset}
	}

	return snappy.Decode(make([]byte, n), b)
}
