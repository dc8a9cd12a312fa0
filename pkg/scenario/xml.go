package scenario

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// decodeXML converts the XML form of a calculation view definition into the
// same document shape the JSON form decodes to: attributes become "@name"
// keys, repeated child elements become lists, and element/attribute names
// keep their namespace prefix (so the root decodes to "Calculation:scenario"
// and a typed mapping carries "@xsi:type").
func decodeXML(data []byte) (Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("no root element")
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			name, value, err := decodeElement(dec, start, nil)
			if err != nil {
				return nil, err
			}
			root := Document{}
			addChild(root, name, value)
			return root, nil
		}
	}
}

// decodeElement consumes one element and its subtree. The namespace prefix
// table is copied on write since xmlns declarations scope to the subtree.
func decodeElement(dec *xml.Decoder, start xml.StartElement, prefixes map[string]string) (string, any, error) {
	scope := prefixes
	copied := false
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" {
			if !copied {
				scope = copyPrefixes(prefixes)
				copied = true
			}
			scope[attr.Value] = attr.Name.Local
		}
	}

	elem := Document{}
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		elem["@"+qualifiedName(attr.Name, scope)] = attr.Value
	}

	var text bytes.Buffer
	hasChildren := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			hasChildren = true
			childName, childValue, err := decodeElement(dec, t, scope)
			if err != nil {
				return "", nil, err
			}
			addChild(elem, childName, childValue)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			name := qualifiedName(start.Name, scope)
			trimmed := bytes.TrimSpace(text.Bytes())
			if !hasChildren && len(elem) == 0 {
				// Leaf element with no attributes collapses to its text.
				return name, string(trimmed), nil
			}
			if len(trimmed) > 0 {
				elem["#text"] = string(trimmed)
			}
			return name, elem, nil
		}
	}
}

// addChild inserts a child under name, promoting to a list on repetition.
func addChild(parent Document, name string, value any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = value
		return
	}
	if list, ok := existing.([]any); ok {
		parent[name] = append(list, value)
		return
	}
	parent[name] = []any{existing, value}
}

// qualifiedName restores the authored prefix for a resolved XML name.
func qualifiedName(name xml.Name, prefixes map[string]string) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := prefixes[name.Space]; ok {
		return prefix + ":" + name.Local
	}
	return name.Local
}

func copyPrefixes(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
