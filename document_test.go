package amf3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repetitive() []string {
	s := make([]string, 2048)
	for i := range s {
		s[i] = fmt.Sprintf("hello, world %d", i%16)
	}
	return s
}

func TestDocumentCompression(t *testing.T) {
	tests := []struct {
		name string
		c    compressor
		typ  documentType
	}{
		{"snappy", SnappyCompressor{}, docSnappy},
		{"snappy incremental", SnappyCompressor{Incremental: true}, docSnappyIncremental},
		{"zlib", ZlibCompressor{Level: ZlibDefaultCompression}, docZlib},
		{"zlib best speed", ZlibCompressor{Level: ZlibBestSpeed}, docZlib},
		{"zstd", ZstdCompressor{}, docZstd},
		{"zstd best compression", ZstdCompressor{Level: ZstdBestCompression}, docZstd},
	}

	in := repetitive()

	body := mustEncode(t, in)
	want, err := Decode(body)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Encoder{Compression: tt.c, Checksum: true}

			doc, err := e.EncodeDocument(in)
			require.NoError(t, err)

			assert.Equal(t, magicHeaderBytes, binary.LittleEndian.Uint32(doc))
			assert.Equal(t, tt.typ, documentType(doc[4]>>4))
			assert.Equal(t, byte(flagChecksum), doc[4]&0x0f)
			assert.Less(t, len(doc), len(body))

			got, err := NewDecoder().DecodeDocument(doc)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("document mismatch (-want +got)\n%s", diff)
			}
		})
	}
}

func TestDocumentThreshold(t *testing.T) {
	e := NewEncoder()
	e.Compression = SnappyCompressor{}

	doc, err := e.EncodeDocument("short")
	require.NoError(t, err)
	assert.Equal(t, docRaw, documentType(doc[4]>>4))
	assert.Equal(t, mustEncode(t, "short"), doc[headerSize:])

	doc, err = e.EncodeDocument(repetitive())
	require.NoError(t, err)
	assert.Equal(t, docSnappy, documentType(doc[4]>>4))
}

func TestDocumentChecksum(t *testing.T) {
	e := &Encoder{Checksum: true}

	doc, err := e.EncodeDocument(NewArray("checked", 1, 2, 3))
	require.NoError(t, err)

	v, err := NewDecoder().DecodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, NewArray("checked", 1, 2, 3), v)

	// flip a bit in the string body
	bad := append([]byte(nil), doc...)
	bad[len(bad)-8] ^= 0x01
	_, err = NewDecoder().DecodeDocument(bad)
	assert.ErrorIs(t, err, ErrBadChecksum)

	// documents without a checksum are not verified
	plain, err := NewEncoder().EncodeDocument(NewArray("checked", 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, byte(0), plain[4])
	assert.Len(t, plain, len(doc)-8)
}

func TestDocumentHeader(t *testing.T) {
	doc, err := NewEncoder().EncodeDocument(true)
	require.NoError(t, err)
	assert.Equal(t, []byte{'=', 'a', 'm', 'f', 0, typeTRUE}, doc)

	tests := []struct {
		what string
		in   []byte
		err  error
	}{
		{"empty", nil, ErrBadHeader},
		{"short", []byte("=amf"), ErrBadHeader},
		{"bad magic", []byte{'=', 's', 'r', 'l', 0, typeTRUE}, ErrBadHeader},
		{"unknown document type", []byte{'=', 'a', 'm', 'f', 0x70, typeTRUE}, ErrBadHeader},
		{"missing checksum", []byte{'=', 'a', 'm', 'f', flagChecksum, 1, 2}, ErrTruncated},
		{"truncated body", []byte{'=', 'a', 'm', 'f', 0, typeSTRING, 0x05, 'a'}, ErrTruncated},
	}

	for _, tt := range tests {
		_, err := NewDecoder().DecodeDocument(tt.in)
		if !errors.Is(err, tt.err) {
			t.Errorf("%s: got %v, want %v", tt.what, err, tt.err)
		}
	}
}

func TestCorruptCompressedBody(t *testing.T) {
	tests := []struct {
		what string
		c    compressor
		in   []byte
	}{
		{"snappy length past end", SnappyCompressor{Incremental: true}, []byte{0x7f, 1, 2}},
		{"zlib length past end", ZlibCompressor{}, []byte{0x10, 0x7f, 1}},
		{"zstd length past end", ZstdCompressor{}, []byte{0x7f, 1}},
		{"unterminated varint", ZstdCompressor{}, []byte{0x80, 0x80}},
	}

	for _, tt := range tests {
		_, err := tt.c.decompress(tt.in)

		var c ErrCorrupt
		if !errors.As(err, &c) {
			t.Errorf("%s: got %v, want a corrupt document error", tt.what, err)
		}
	}

	_, err := SnappyCompressor{}.decompress([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func allocated(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestClaimedLengthIsNotTrusted(t *testing.T) {
	zlibBody := func(claimed uint, payload []byte) []byte {
		framed, err := ZlibCompressor{Level: ZlibBestSpeed}.compress(payload)
		require.NoError(t, err)
		_, sz, err := varintdecode(framed)
		require.NoError(t, err)
		return append(varint(nil, claimed), framed[sz:]...)
	}

	tests := []struct {
		what string
		typ  documentType
		body []byte
	}{
		{"zlib claiming 2GiB", docZlib, zlibBody(0x7fffffff, []byte("hello"))},
		{"zlib expanding past its claim", docZlib, zlibBody(1000, make([]byte, 8<<20))},
		{"snappy claiming 4GiB", docSnappy, append(binary.AppendUvarint(nil, 0xfffffff0), 0x00, 'x')},
		{"framed snappy claiming 4GiB", docSnappyIncremental, appendFrame(nil, append(binary.AppendUvarint(nil, 0xfffffff0), 0x00, 'x'))},
	}

	for _, tt := range tests {
		doc := append([]byte{'=', 'a', 'm', 'f', byte(tt.typ) << 4}, tt.body...)

		var err error
		n := allocated(func() { _, err = NewDecoder().DecodeDocument(doc) })

		var c ErrCorrupt
		assert.ErrorAs(t, err, &c, tt.what)
		assert.Less(t, n, uint64(64<<20), "%s: allocated %d bytes", tt.what, n)
	}
}

func TestFrame(t *testing.T) {
	b := appendFrame([]byte{0xaa}, []byte("blob"))
	assert.Equal(t, []byte{0xaa, 4, 'b', 'l', 'o', 'b'}, b)

	blob, err := readFrame(append(b[1:], "trailing"...))
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), blob)

	_, err = readFrame([]byte{5, 'b'})
	assert.ErrorIs(t, err, ErrCorrupt{errBadOffset})
}

func TestVarint(t *testing.T) {
	for _, n := range []uint{0, 1, 127, 128, 300, 1 << 20, 1<<31 - 1} {
		b := varint(nil, n)
		got, sz, err := varintdecode(b)
		require.NoError(t, err)
		assert.Equal(t, int(n), got)
		assert.Equal(t, len(b), sz)
	}

	_, _, err := varintdecode([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
	assert.ErrorIs(t, err, ErrCorrupt{errBadVarint})
}
