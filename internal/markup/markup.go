// Package markup is a small namespaced element tree with a deterministic
// serializer and a decoder built on encoding/xml tokens.
//
// Element names are kept in their prefixed form ("coupling-scheme:serial-explicit").
// Attributes keep insertion order; the serializer never sorts.
package markup

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Header is the declaration written before every document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

// Attr is one name="value" pair.
type Attr struct {
	Name  string
	Value string
}

// A is shorthand for Attr{name, value}.
func A(name, value string) Attr { return Attr{Name: name, Value: value} }

// Element is one node of the tree. Text content is not modelled.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// New returns an element with the given attributes, in order.
func New(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// Add appends a new child and returns it.
func (e *Element) Add(name string, attrs ...Attr) *Element {
	c := New(name, attrs...)
	e.Children = append(e.Children, c)
	return c
}

// Append appends existing children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child with the given name, in order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Prefix splits "ns:local" and returns ns, or "" for an unprefixed name.
func (e *Element) Prefix() string {
	if i := strings.IndexByte(e.Name, ':'); i >= 0 {
		return e.Name[:i]
	}
	return ""
}

// Local returns the part of the name after the prefix.
func (e *Element) Local() string {
	if i := strings.IndexByte(e.Name, ':'); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}

// ---------------------------------------------------------------------------
// Serializer
// ---------------------------------------------------------------------------

const indent = "  "

// Encode writes the header and root to w: one element per line, two-space
// indentation, empty elements self-closed as "<name ... />".
func Encode(w io.Writer, root *Element) error {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	if err := writeElement(&buf, root, 0); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal returns the encoded document.
func Marshal(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, e *Element, depth int) error {
	if e == nil {
		return fmt.Errorf("nil element at depth %d", depth)
	}
	if e.Name == "" {
		return fmt.Errorf("unnamed element at depth %d", depth)
	}
	pad := strings.Repeat(indent, depth)
	buf.WriteString(pad)
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		if err := xml.EscapeText(buf, []byte(a.Value)); err != nil {
			return err
		}
		buf.WriteByte('"')
	}
	if len(e.Children) == 0 {
		buf.WriteString(" />\n")
		return nil
	}
	buf.WriteString(">\n")
	for _, c := range e.Children {
		if err := writeElement(buf, c, depth+1); err != nil {
			return err
		}
	}
	buf.WriteString(pad)
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteString(">\n")
	return nil
}
