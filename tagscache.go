package amf3

import (
	"reflect"
	"strings"
	"sync"
)

// tagsCache maps struct types to the members they encode as. Entries only
// describe types, so a single cache is shared by every encode call.
type tagsCache struct {
	cmap sync.Map // map[reflect.Type][]tag
}

type tag struct {
	id        int
	name      string
	omitEmpty bool
}

var structTags tagsCache

func (tc *tagsCache) Get(ptr reflect.Value) []tag {
	if ptr.Kind() != reflect.Struct {
		return nil
	}

	ptrType := ptr.Type()
	if m, ok := tc.cmap.Load(ptrType); ok {
		return m.([]tag)
	}

	var m []tag

	l := ptrType.NumField()
	for i := 0; i < l; i++ {
		name, opts := parseTag(ptrType.Field(i).Tag.Get("amf3"))
		if name == "-" {
			// amf3 tag is "-" -- skip
			continue
		}

		if pkgpath := ptrType.Field(i).PkgPath; pkgpath != "" {
			// field not exported -- skip
			continue
		}

		if name == "" {
			name = ptrType.Field(i).Name
		}
		m = append(m, tag{i, name, opts.Contains("omitempty")})
	}

	tc.cmap.Store(ptrType, m)
	return m
}

type tagOptions string

func parseTag(t string) (string, tagOptions) {
	name, opts, _ := strings.Cut(t, ",")
	return name, tagOptions(opts)
}

func (o tagOptions) Contains(opt string) bool {
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if name == opt {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
