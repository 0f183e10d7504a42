package main

import (
	"bytes"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	mrand "math/rand"

	"github.com/dgryski/go-ddmin"
	amf3 "github.com/dmarenko/amf3-encoder-decoder"
)

// check decodes b and, when that works, verifies that the value survives an
// encode/decode/encode round. Inputs that do not decode pass.
func check(b []byte) (res ddmin.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = ddmin.Fail
		}
	}()

	v, err := amf3.Decode(b)
	if err != nil {
		return ddmin.Pass
	}

	enc, err := amf3.Encode(v)
	if err != nil {
		var u amf3.ErrUnsupported
		if errors.As(err, &u) {
			return ddmin.Pass
		}
		return ddmin.Fail
	}

	v2, err := amf3.Decode(enc)
	if err != nil {
		return ddmin.Fail
	}

	enc2, err := amf3.Encode(v2)
	if err != nil || !bytes.Equal(enc, enc2) {
		return ddmin.Fail
	}

	return ddmin.Pass
}

func main() {

	maxLen := flag.Int("maxlen", 200, "maximum length of a generated input")
	iterations := flag.Int("n", 0, "number of inputs to try, 0 to run forever")
	flag.Parse()

	// bias the first byte towards markers this package understands
	markers := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x08, 0x09, 0x0a, 0x0c}

	var decoded int
	for i := 0; *iterations == 0 || i < *iterations; i++ {
		b := make([]byte, 1+mrand.Intn(*maxLen))
		crand.Read(b)
		b[0] = markers[mrand.Intn(len(markers))]

		if _, err := amf3.Decode(b); err == nil {
			decoded++
		}

		if check(b) == ddmin.Pass {
			continue
		}

		fmt.Println("failing input:")
		fmt.Println(hex.Dump(b))

		m := ddmin.Minimize(b, check)
		fmt.Println("minimized:")
		fmt.Println(hex.Dump(m))

		log.Fatalf("round trip failed after %d inputs (%d decoded)", i+1, decoded)
	}

	log.Printf("%d inputs, %d decoded, no failures", *iterations, decoded)
}
