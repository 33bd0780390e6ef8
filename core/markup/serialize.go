package markup

import (
	"bytes"

	"github.com/FocuswithJustin/Redline/core/encoding"
)

// Serialize converts the document back to XML bytes. Untouched subtrees
// round-trip structurally: tags, attributes, and character data are
// re-emitted in original order without added indentation.
func (d *Document) Serialize() []byte {
	var buf bytes.Buffer
	if d.decl != nil {
		buf.WriteString("<?xml")
		for _, a := range d.decl {
			buf.WriteString(" ")
			buf.WriteString(a.Local)
			buf.WriteString("=\"")
			buf.WriteString(encoding.EscapeXMLAttr(a.Value))
			buf.WriteString("\"")
		}
		buf.WriteString("?>")
	}
	if d.Root != nil {
		writeNode(&buf, d.Root)
	}
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	buf.WriteString("<")
	buf.WriteString(n.Name())
	for _, a := range n.Attrs {
		buf.WriteString(" ")
		if a.Space != "" {
			buf.WriteString(a.Space)
			buf.WriteString(":")
		}
		buf.WriteString(a.Local)
		buf.WriteString("=\"")
		buf.WriteString(encoding.EscapeXMLAttr(a.Value))
		buf.WriteString("\"")
	}

	if n.Text == "" && len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}

	buf.WriteString(">")
	if n.Text != "" {
		buf.WriteString(encoding.EscapeXMLText(n.Text))
	}
	for _, child := range n.Children {
		writeNode(buf, child)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name())
	buf.WriteString(">")
}
