package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decode parses a document into an element tree. Element and attribute
// names are rewritten to prefixed form using prefixes, which maps namespace
// URIs to the prefix the caller expects ("" for the default namespace).
//
// URIs missing from prefixes fall back to their last path segment. Prefixes
// that were never declared are kept as written. Namespace declarations
// themselves are dropped from the attribute lists.
func Decode(r io.Reader, prefixes map[string]string) (*Element, error) {
	d := xml.NewDecoder(r)
	d.Strict = true

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &Element{Name: qualify(t.Name, prefixes)}
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}
				e.Attrs = append(e.Attrs, Attr{Name: qualify(a.Name, prefixes), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("line %d: second root element <%s>", lineOf(d), e.Name)
				}
				root = e
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			}
			stack = append(stack, e)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 && len(strings.TrimSpace(string(t))) > 0 {
				return nil, fmt.Errorf("line %d: text outside the root element", lineOf(d))
			}
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

func qualify(n xml.Name, prefixes map[string]string) string {
	if n.Space == "" {
		return n.Local
	}
	if p, ok := prefixes[n.Space]; ok {
		if p == "" {
			return n.Local
		}
		return p + ":" + n.Local
	}
	if uri := strings.TrimRight(n.Space, "/"); strings.Contains(uri, "/") {
		return uri[strings.LastIndexByte(uri, '/')+1:] + ":" + n.Local
	}
	return n.Space + ":" + n.Local
}

func lineOf(d *xml.Decoder) int {
	line, _ := d.InputPos()
	return line
}
