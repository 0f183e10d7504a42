package amf3

// ZstdCompressor compresses document bodies as one zstd frame, prefixed with
// its varint length.
type ZstdCompressor struct {
	Level int // ZstdDefaultCompression if 0
}

// Zstd levels
const (
	ZstdBestSpeed          = 1
	ZstdBestCompression    = 20
	ZstdDefaultCompression = 3
)

func (c ZstdCompressor) compress(body []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = ZstdDefaultCompression
	}

	frame, err := zstdCompressFrame(body, level)
	if err != nil {
		return nil, err
	}

	return appendFrame(make([]byte, 0, len(frame)+binaryMaxVarintLen), frame), nil
}

func (c ZstdCompressor) decompress(b []byte) ([]byte, error) {
	frame, err := readFrame(b)
	if err != nil {
		return nil, err
	}

	return zstdDecompressFrame(frame)
}
