package main

import (
	"encoding/hex"
	"flag"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	amf3 "github.com/dmarenko/amf3-encoder-decoder"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	format   = flag.String("format", "spew", "output format: spew, yaml or hex")
	document = flag.Bool("document", false, "input is a document with a magic header, possibly compressed")
	maxDepth = flag.Int("maxdepth", 0, "maximum nesting depth, 0 for the default")
)

func process(fname string, b []byte) {

	if *format == "hex" {
		os.Stdout.WriteString(hex.Dump(b))
		return
	}

	d := amf3.Decoder{MaxDepth: *maxDepth}

	var v amf3.Value
	var err error
	if *document {
		v, err = d.DecodeDocument(b)
	} else {
		v, err = d.Decode(b)
	}

	if err != nil {
		log.Fatalf("error processing %s: %s", fname, err)
	}

	switch *format {
	case "spew":
		spew.Dump(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(v)); err != nil {
			log.Fatalf("error writing %s as yaml: %s", fname, err)
		}
		enc.Close()
	}
}

func main() {

	flag.Parse()

	switch *format {
	case "spew", "yaml", "hex":
	default:
		log.Fatalf("unknown format %q", *format)
	}

	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			log.Fatal("refusing to read binary input from a terminal; pass a file or pipe one in")
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("error reading stdin: %s", err)
		}
		process("stdin", b)
		return
	}

	for _, arg := range flag.Args() {
		b, err := os.ReadFile(arg)
		if err != nil {
			log.Fatalf("error reading %s: %s", arg, err)
		}
		process(arg, b)
	}
}
