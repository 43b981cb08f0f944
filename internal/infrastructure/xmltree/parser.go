package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseError reports a malformed document
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse xml at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// element accumulates one open element while decoding
type element struct {
	name    string
	path    string
	keys    []string
	entries map[string][]Value
	forced  map[string]bool
	text    strings.Builder
}

func newElement(name, path string) *element {
	return &element{
		name:    name,
		path:    path,
		entries: make(map[string][]Value),
		forced:  make(map[string]bool),
	}
}

func (e *element) add(name string, v Value, forceSequence bool) {
	if _, ok := e.entries[name]; !ok {
		e.keys = append(e.keys, name)
	}
	e.entries[name] = append(e.entries[name], v)
	if forceSequence {
		e.forced[name] = true
	}
}

// value folds the element into a Value. Leaf elements become scalars with
// trimmed text; anything with attributes or children becomes an object with
// the text under #text. Repeated names become sequences.
func (e *element) value() Value {
	text := strings.TrimSpace(e.text.String())
	if len(e.keys) == 0 {
		return Scalar(text)
	}
	fields := make([]Field, 0, len(e.keys)+1)
	for _, k := range e.keys {
		vals := e.entries[k]
		if len(vals) > 1 || e.forced[k] {
			fields = append(fields, Field{Name: k, Value: Sequence(vals...)})
			continue
		}
		fields = append(fields, Field{Name: k, Value: vals[0]})
	}
	if text != "" {
		fields = append(fields, Field{Name: TextKey, Value: Scalar(text)})
	}
	return Object(fields...)
}

// Parse decodes an XML document into a Value rooted at an object holding
// the document element. Elements found at repeatedPath (dot-separated, from
// the document element, e.g. "products.product") always form a Sequence,
// even when the document contains exactly one of them.
func Parse(data []byte, repeatedPath string) (Value, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = xml.HTMLEntity
	repeatedPath = strings.Trim(repeatedPath, ".")

	root := newElement("", "")
	stack := []*element{root}
	sawRoot := false

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Value{}, &ParseError{Offset: d.InputOffset(), Err: err}
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 1 {
				if sawRoot {
					return Value{}, &ParseError{Offset: d.InputOffset(), Err: errors.New("multiple root elements")}
				}
				sawRoot = true
			}
			name := qualifiedName(t.Name)
			path := name
			if top.path != "" {
				path = top.path + "." + name
			}
			el := newElement(name, path)
			for _, attr := range t.Attr {
				el.add(AttributePrefix+qualifiedName(attr.Name), Scalar(attr.Value), false)
			}
			stack = append(stack, el)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 1 || top.name != name {
				return Value{}, &ParseError{
					Offset: d.InputOffset(),
					Err:    fmt.Errorf("unexpected closing tag </%s>", name),
				}
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.add(top.name, top.value(), repeatedPath != "" && top.path == repeatedPath)
		case xml.CharData:
			if len(stack) > 1 {
				top.text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return Value{}, &ParseError{Offset: d.InputOffset(), Err: errors.New("text outside the root element")}
			}
		}
	}

	if len(stack) > 1 {
		return Value{}, &ParseError{
			Offset: d.InputOffset(),
			Err:    fmt.Errorf("unexpected end of document inside <%s>", stack[len(stack)-1].name),
		}
	}
	if !sawRoot {
		return Value{}, &ParseError{Offset: d.InputOffset(), Err: errors.New("document has no root element")}
	}
	return root.value(), nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Records returns the sequence at path. It fails when the path is missing or
// does not resolve to a sequence.
func Records(root Value, path string) ([]Value, bool) {
	node, ok := root.Lookup(strings.Trim(path, "."))
	if !ok {
		return nil, false
	}
	return node.Items()
}
