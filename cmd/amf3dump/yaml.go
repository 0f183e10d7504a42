package main

import (
	"encoding/base64"
	"math"
	"sort"
	"strconv"
	"time"

	amf3 "github.com/dmarenko/amf3-encoder-decoder"
	"gopkg.in/yaml.v3"
)

// yamlBuilder turns decoded values into a YAML node tree. Instances that
// occur more than once get an anchor on their first node and aliases
// everywhere else, which also keeps cycles finite.
type yamlBuilder struct {
	seen    map[interface{}]*yaml.Node
	anchors int
}

func toYAML(v amf3.Value) *yaml.Node {
	yb := yamlBuilder{seen: make(map[interface{}]*yaml.Node)}
	return yb.node(v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// ref returns an alias when key was already emitted, or a fresh node
// registered for key that the caller fills in
func (yb *yamlBuilder) ref(key interface{}) (*yaml.Node, bool) {
	if n, ok := yb.seen[key]; ok {
		if n.Anchor == "" {
			yb.anchors++
			n.Anchor = "ref" + strconv.Itoa(yb.anchors)
		}
		return &yaml.Node{Kind: yaml.AliasNode, Value: n.Anchor, Alias: n}, true
	}

	n := &yaml.Node{}
	yb.seen[key] = n
	return n, false
}

func (yb *yamlBuilder) node(v amf3.Value) *yaml.Node {
	switch v := v.(type) {
	case nil:
		return scalar("!!null", "null")
	case amf3.Undefined:
		return scalar("!undefined", "")
	case bool:
		return scalar("!!bool", strconv.FormatBool(v))
	case int:
		return scalar("!!int", strconv.Itoa(v))
	case float64:
		return scalar("!!float", formatFloat(v))
	case string:
		return scalar("!!str", v)

	case *amf3.Date:
		n, seen := yb.ref(v)
		if !seen {
			n.Kind, n.Tag = yaml.ScalarNode, "!!timestamp"
			n.Value = v.Time().Format(time.RFC3339Nano)
		}
		return n

	case *amf3.ByteArray:
		n, seen := yb.ref(v)
		if !seen {
			n.Kind, n.Tag = yaml.ScalarNode, "!!binary"
			n.Value = base64.StdEncoding.EncodeToString(*v)
		}
		return n

	case *amf3.Array:
		n, seen := yb.ref(v)
		if seen {
			return n
		}

		if len(v.Assoc) == 0 {
			n.Kind, n.Tag = yaml.SequenceNode, "!!seq"
			for _, e := range v.Dense {
				n.Content = append(n.Content, yb.node(e))
			}
			return n
		}

		// mixed arrays become a mapping from index or key to value
		n.Kind, n.Tag = yaml.MappingNode, "!!map"
		for i, e := range v.Dense {
			n.Content = append(n.Content, scalar("!!int", strconv.Itoa(i)), yb.node(e))
		}
		for _, k := range sortedKeys(v.Assoc) {
			n.Content = append(n.Content, scalar("!!str", k), yb.node(v.Assoc[k]))
		}
		return n

	case *amf3.Object:
		n, seen := yb.ref(v)
		if seen {
			return n
		}

		n.Kind, n.Tag = yaml.MappingNode, "!!map"
		if v.Traits != nil && isTagSafe(v.Traits.ClassName) {
			n.Tag = "!" + v.Traits.ClassName
		}
		for _, k := range sortedKeys(v.Members) {
			n.Content = append(n.Content, scalar("!!str", k), yb.node(v.Members[k]))
		}
		return n
	}

	// not produced by the decoder
	return scalar("!!null", "null")
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// isTagSafe reports whether a class name can be written as a local tag as is
func isTagSafe(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-', c == '$':
		default:
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]amf3.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
