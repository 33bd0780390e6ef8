// Package markup provides a typed WordprocessingML node tree.
//
// The tree is parsed from a document part with xmlquery and converted into
// an owned Node structure with a closed set of kinds, so downstream code
// matches on Kind instead of re-checking tag names at every call site.
// The tree is exclusively owned by one conversion pass; nothing retains
// references into it across a paragraph rewrite.
package markup

import "strings"

// Kind classifies a node in the document tree.
type Kind int

const (
	// KindOther is any element not otherwise classified (bookmarks,
	// section properties, proofing marks, ...). Preserved verbatim.
	KindOther Kind = iota
	// KindParagraph is a w:p element.
	KindParagraph
	// KindRun is a w:r element.
	KindRun
	// KindText is a w:t or w:delText leaf holding a character span.
	KindText
	// KindRunProps is a w:rPr formatting-properties subtree.
	KindRunProps
	// KindRevision is a w:ins or w:del tracked-change wrapper.
	KindRevision
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindRun:
		return "run"
	case KindText:
		return "text"
	case KindRunProps:
		return "runProps"
	case KindRevision:
		return "revision"
	default:
		return "other"
	}
}

// Attr is a single attribute. Space holds the prefix as written in the
// source ("w", "xml", "xmlns"), empty for unprefixed attributes.
type Attr struct {
	Space string
	Local string
	Value string
}

// Node is one element in the document tree. Text holds the node's direct
// character data; WordprocessingML keeps character data on leaf elements
// (w:t, w:delText, w:instrText), so element/text interleaving is not
// modelled.
type Node struct {
	Kind     Kind
	Space    string
	Local    string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// classify maps a tag to its Kind. Classification is by local name for the
// main WordprocessingML prefix; foreign-namespace elements stay KindOther.
func classify(space, local string) Kind {
	if space != "w" && space != "" {
		return KindOther
	}
	switch local {
	case "p":
		return KindParagraph
	case "r":
		return KindRun
	case "t", "delText":
		return KindText
	case "rPr":
		return KindRunProps
	case "ins", "del":
		return KindRevision
	default:
		return KindOther
	}
}

// NewElement creates an element node with the kind derived from its tag.
func NewElement(space, local string) *Node {
	return &Node{Kind: classify(space, local), Space: space, Local: local}
}

// Name returns the prefixed tag name, e.g. "w:p".
func (n *Node) Name() string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Attr returns the value of the attribute with the given local name,
// regardless of prefix. Returns "" if absent.
func (n *Node) Attr(local string) string {
	for _, a := range n.Attrs {
		if a.Local == local {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets an attribute, replacing any existing attribute with the same
// prefix and local name.
func (n *Node) SetAttr(space, local, value string) {
	for i, a := range n.Attrs {
		if a.Space == space && a.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Space: space, Local: local, Value: value})
}

// Append adds children to the node.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:  n.Kind,
		Space: n.Space,
		Local: n.Local,
		Text:  n.Text,
	}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// RunProps returns the run's formatting-properties child, or nil.
func (n *Node) RunProps() *Node {
	for _, child := range n.Children {
		if child.Kind == KindRunProps {
			return child
		}
	}
	return nil
}

// TextLeaf returns the run's single text leaf, or nil. A well-formed run
// has at most one.
func (n *Node) TextLeaf() *Node {
	for _, child := range n.Children {
		if child.Kind == KindText {
			return child
		}
	}
	return nil
}

// InnerText returns the concatenated character data of the node and its
// descendants, in document order.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.innerText(&sb)
	return sb.String()
}

func (n *Node) innerText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for _, child := range n.Children {
		child.innerText(sb)
	}
}

// Visitor is called for every node during a Walk. parents holds the
// ancestor chain from the root down to the node's immediate parent; the
// slice is reused between calls and must not be retained.
type Visitor func(n *Node, parents []*Node)

// Walk visits the node and all descendants in document order.
func (n *Node) Walk(visit Visitor) {
	walk(n, nil, visit)
}

func walk(n *Node, parents []*Node, visit Visitor) {
	visit(n, parents)
	parents = append(parents, n)
	for _, child := range n.Children {
		walk(child, parents, visit)
	}
}
