//go:build clibs

package amf3

import (
	"github.com/DataDog/zstd"
)

func zstdCompressFrame(body []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(nil, body, level)
}

func zstdDecompressFrame(frame []byte) ([]byte, error) {
	return zstd.Decompress(nil, frame)
}
