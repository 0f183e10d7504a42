//go:build !clibs

package amf3

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// maxZstdDocument bounds what a single frame may decompress to
const maxZstdDocument = 1 << 31

// one encoder per level; EncodeAll may be called concurrently
var zstdEncoders sync.Map // map[int]*zstd.Encoder

var zstdDecoder, _ = zstd.NewReader(nil,
	zstd.WithDecoderConcurrency(0),
	zstd.WithDecoderMaxMemory(maxZstdDocument),
)

func zstdCompressFrame(body []byte, level int) ([]byte, error) {
	enc, ok := zstdEncoders.Load(level)
	if !ok {
		w, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, err
		}
		enc, _ = zstdEncoders.LoadOrStore(level, w)
	}

	return enc.(*zstd.Encoder).EncodeAll(body, nil), nil
}

func zstdDecompressFrame(frame []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(frame, nil)
}
