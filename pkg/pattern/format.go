package pattern

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Values supplies placeholder values to Format.
type Values interface {
	Value(key string) (any, bool)
}

// Map looks placeholders up in a nested map. Keys containing dots walk into
// nested maps and slices: "user.name", "items.0.id".
type Map map[string]any

// Value implements Values.
func (m Map) Value(key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return Lookup(map[string]any(m), key, ".")
}

// List looks placeholders up by index. It is meant for anonymous placeholders.
type List []any

// Value implements Values.
func (l List) Value(key string) (any, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(l) {
		return nil, false
	}
	return l[i], true
}

// Func adapts a function to Values.
type Func func(key string) (any, bool)

// Value implements Values.
func (f Func) Value(key string) (any, bool) {
	return f(key)
}

// Format substitutes placeholders in s. It accepts the same syntax as Compile,
// but is lenient: nothing about the placeholders is validated, and missing
// values render as "".
//
//	Format("Hello {who}!", Map{"who": "world"})  // "Hello world!"
//	Format("{} and {}", List{"this", "that"})     // "this and that"
//	Format("Curly {{braces}}", nil)                // "Curly {braces}"
func Format(s string, values Values) string {
	var (
		b    strings.Builder
		anon int
	)
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			b.WriteByte('{')
			i += 2
		case strings.HasPrefix(s[i:], "}}"):
			b.WriteByte('}')
			i += 2
		case s[i] == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				b.WriteByte('{')
				i++
				continue
			}
			key := s[i+1 : i+1+end]
			if key == "" {
				key = strconv.Itoa(anon)
				anon++
			}
			if values != nil {
				if v, ok := values.Value(key); ok && v != nil {
					b.WriteString(fmt.Sprint(v))
				}
			}
			i += end + 2
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// Lookup walks obj along path, a sep-separated list of map keys and slice
// indices. sep defaults to ".". It reports false if any step is missing.
func Lookup(obj any, path string, sep string) (any, bool) {
	if sep == "" {
		sep = "."
	}
	return LookupKeys(obj, strings.Split(path, sep)...)
}

// LookupKeys is Lookup with pre-split keys.
func LookupKeys(obj any, keys ...string) (any, bool) {
	cur := obj
	for _, key := range keys {
		if cur == nil {
			return nil, false
		}
		v := reflect.ValueOf(cur)
		for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			next := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
			if !next.IsValid() {
				return nil, false
			}
			cur = next.Interface()
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= v.Len() {
				return nil, false
			}
			cur = v.Index(i).Interface()
		default:
			return nil, false
		}
	}
	return cur, true
}
