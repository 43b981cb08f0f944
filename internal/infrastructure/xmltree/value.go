// Package xmltree parses XML documents into a small tagged tree of scalars,
// sequences and objects, the shape supplier feeds are mapped from.
package xmltree

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindObject
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Key prefixes used for attributes and mixed text content
const (
	AttributePrefix = "@_"
	TextKey         = "#text"
)

// Value is one node of a parsed document: a Scalar string, a Sequence of
// values or an Object of named values. The zero Value is an empty Scalar.
type Value struct {
	kind   Kind
	text   string
	items  []Value
	keys   []string
	fields map[string]Value
}

// Scalar creates a scalar value
func Scalar(s string) Value {
	return Value{kind: KindScalar, text: s}
}

// Sequence creates a sequence value
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, items: items}
}

// Field is a named entry used to build objects
type Field struct {
	Name  string
	Value Value
}

// Object creates an object value preserving field order. A repeated name
// keeps its first position and the last value.
func Object(fields ...Field) Value {
	v := Value{kind: KindObject, fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		if _, exists := v.fields[f.Name]; !exists {
			v.keys = append(v.keys, f.Name)
		}
		v.fields[f.Name] = f.Value
	}
	return v
}

// Kind returns the variant of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsScalar reports whether v is a scalar
func (v Value) IsScalar() bool { return v.kind == KindScalar }

// IsSequence reports whether v is a sequence
func (v Value) IsSequence() bool { return v.kind == KindSequence }

// IsObject reports whether v is an object
func (v Value) IsObject() bool { return v.kind == KindObject }

// Text returns the string content of a scalar, or the #text content of an
// element that also carried attributes or children.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindScalar:
		return v.text, true
	case KindObject:
		if t, ok := v.fields[TextKey]; ok && t.kind == KindScalar {
			return t.text, true
		}
	}
	return "", false
}

// Items returns the elements of a sequence
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.items, true
}

// Len returns the number of items of a sequence or fields of an object
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindObject:
		return len(v.keys)
	}
	return 0
}

// Field returns a named field of an object
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Keys returns the field names of an object in document order
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// LeafKeys returns the names of the object's scalar fields in document order
func (v Value) LeafKeys() []string {
	keys := []string{}
	if v.kind != KindObject {
		return keys
	}
	for _, k := range v.keys {
		if v.fields[k].kind == KindScalar {
			keys = append(keys, k)
		}
	}
	return keys
}

// Lookup follows a dot-separated path through objects. A numeric segment
// indexes into a sequence. An empty path returns v itself.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch cur.kind {
		case KindObject:
			next, ok := cur.fields[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindSequence:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.items) {
				return Value{}, false
			}
			cur = cur.items[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// MarshalJSON renders scalars as strings, sequences as arrays and objects
// as JSON objects in document order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.fields[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		s, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(s)
	}
	return nil
}
