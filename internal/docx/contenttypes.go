package docx

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// Content types involved in locating and declaring document parts.
const (
	mainDocumentContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	settingsContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
)

const mainPartExpr = "//Override[@ContentType='" + mainDocumentContentType + "']"

// MainPartName resolves the primary content part from [Content_Types].xml.
// Packages without a usable declaration fall back to the conventional
// word/document.xml.
func (p *Package) MainPartName() string {
	data, ok := p.Part(ContentTypesPart)
	if !ok {
		return DefaultDocumentPart
	}
	doc, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return DefaultDocumentPart
	}
	expr, err := xpath.Compile(mainPartExpr)
	if err != nil {
		return DefaultDocumentPart
	}
	node := xmlquery.QuerySelector(doc, expr)
	if node == nil {
		return DefaultDocumentPart
	}
	name := node.SelectAttr("PartName")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return DefaultDocumentPart
	}
	return name
}

// ensureSettingsDeclared adds an Override for the settings part to
// [Content_Types].xml when one is missing. Packages that never carried a
// settings part need the declaration once the pass creates one.
func (p *Package) ensureSettingsDeclared() error {
	data, ok := p.Part(ContentTypesPart)
	if !ok {
		return nil
	}
	doc, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return errors.NewParse(ContentTypesPart, "", err.Error())
	}
	existing, err := xmlquery.QueryAll(doc, "//Override[@PartName='/"+SettingsPart+"']")
	if err != nil {
		return errors.NewParse(ContentTypesPart, "", err.Error())
	}
	if len(existing) > 0 {
		return nil
	}
	root, err := xmlquery.Query(doc, "/Types")
	if err != nil || root == nil {
		return errors.NewStructural("declare settings part", "missing Types root")
	}
	override := &xmlquery.Node{
		Type: xmlquery.ElementNode,
		Data: "Override",
	}
	xmlquery.AddAttr(override, "PartName", "/"+SettingsPart)
	xmlquery.AddAttr(override, "ContentType", settingsContentType)
	xmlquery.AddChild(root, override)
	p.SetPart(ContentTypesPart, []byte(doc.OutputXML(true)))
	return nil
}
