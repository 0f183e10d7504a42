package amf3_test

import (
	"testing"

	amf3 "github.com/dmarenko/amf3-encoder-decoder"
)

type planet struct {
	Pos               int      `amf3:"pos"`
	Name              string   `amf3:"name"`
	MassEarths        float64  `amf3:"mass_earths"`
	NotableSatellites []string `amf3:"notable_satellites"`
}

var solarSystem = map[string]interface{}{
	"galaxy": "Milky Way",
	"age":    4568,
	"stars":  []string{"Sun"},
	"planets": []planet{
		{1, "Mercury", 0.055, []string{}},
		{2, "Venus", 0.815, []string{}},
		{3, "Earth", 1.0, []string{"Moon"}},
		{4, "Mars", 0.107, []string{"Phobos", "Deimos"}},
		{5, "Jupiter", 317.83, []string{"Io", "Europa", "Ganymede", "Callisto"}},
		{6, "Saturn", 95.16, []string{"Titan", "Rhea", "Enceladus"}},
		{7, "Uranus", 14.536, []string{"Oberon", "Titania", "Miranda", "Ariel", "Umbriel"}},
		{8, "Neptune", 17.15, []string{"Tritan"}},
	},
}

func BenchmarkEncodeComplexData(b *testing.B) {
	enc := amf3.NewEncoder()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := enc.Encode(solarSystem)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkDecodeComplexData(b *testing.B) {
	body, err := amf3.Encode(solarSystem)
	if err != nil {
		b.Fatal(err)
	}

	dec := amf3.NewDecoder()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := dec.Decode(body)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkEncodeAndSnappyComplexDataDocument(b *testing.B) {
	enc := amf3.NewEncoder()
	enc.Compression = amf3.SnappyCompressor{Incremental: true}
	enc.CompressionThreshold = 0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := enc.EncodeDocument(solarSystem)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkEncodeAndZlibComplexDataDocument(b *testing.B) {
	enc := amf3.NewEncoder()
	enc.Compression = amf3.ZlibCompressor{Level: amf3.ZlibDefaultCompression}
	enc.CompressionThreshold = 0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := enc.EncodeDocument(solarSystem)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkEncodeAndZstdComplexDataDocument(b *testing.B) {
	enc := amf3.NewEncoder()
	enc.Compression = amf3.ZstdCompressor{Level: amf3.ZstdDefaultCompression}
	enc.CompressionThreshold = 0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := enc.EncodeDocument(solarSystem)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkDecodeSnappyComplexDataDocument(b *testing.B) {
	enc := amf3.NewEncoder()
	enc.Compression = amf3.SnappyCompressor{}
	enc.CompressionThreshold = 0
	enc.Checksum = true

	doc, err := enc.EncodeDocument(solarSystem)
	if err != nil {
		b.Fatal(err)
	}

	dec := amf3.NewDecoder()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := dec.DecodeDocument(doc)
		if err != nil {
			b.FailNow()
		}
	}
}
