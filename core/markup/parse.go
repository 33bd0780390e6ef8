package markup

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// Document is one parsed document part. It owns its tree for the duration
// of a conversion pass.
type Document struct {
	decl []Attr // XML declaration attributes, nil if the part had none
	Root *Node
}

// Parse parses an XML document part into an owned node tree.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("XML", "", err.Error())
	}

	doc := &Document{}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.DeclarationNode:
			for _, a := range child.Attr {
				doc.decl = append(doc.decl, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
			}
		case xmlquery.ElementNode:
			if doc.Root == nil {
				doc.Root = convert(child)
			}
		}
	}
	if doc.Root == nil {
		return nil, errors.NewParse("XML", "", "no root element")
	}
	return doc, nil
}

// convert maps an xmlquery node into the owned tree. Direct character data
// is gathered onto the element; WordprocessingML carries text only on leaf
// elements, so interleaving is not preserved.
func convert(src *xmlquery.Node) *Node {
	n := NewElement(src.Prefix, src.Data)
	if len(src.Attr) > 0 {
		n.Attrs = make([]Attr, 0, len(src.Attr))
		for _, a := range src.Attr {
			n.Attrs = append(n.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
		}
	}

	var text strings.Builder
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			n.Children = append(n.Children, convert(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		}
	}
	n.Text = text.String()
	return n
}
