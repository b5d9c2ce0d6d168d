package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// WordprocessingML assembly. The document model here is deliberately small:
// four paragraph kinds and a single section carrying the page geometry.
// Units follow OOXML conventions: page size and margins in twips (20 per
// point), run sizes in half-points, spacing in twentieths of a point.

type paragraphKind int

const (
	paraBody paragraphKind = iota
	paraHeading
	paraEmpty
	paraPageBreak
	paraPlaceholder
)

type paragraph struct {
	kind paragraphKind
	text string
}

type document struct {
	title string
	// pageWidthTw/pageHeightTw are the uniform page size in twips.
	pageWidthTw  int
	pageHeightTw int
	paragraphs   []paragraph
}

const (
	marginTwips      = 1440 // 1 inch on all sides
	bodyRunHalfPts   = 24   // 12pt body text
	headingBeforeTw  = 240  // 12pt before headings
	headingAfterTw   = 120  // 6pt after headings
	paragraphAfterTw = 120  // 6pt after body paragraphs

	creatorName        = "ConvertStudio"
	defaultTitle       = "Converted Document"
	docDescription     = "Converted from PDF using ConvertStudio"
	placeholderMessage = "No text content could be extracted from this PDF."
)

// bytes serializes the document to a .docx (OPC zip) package.
func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", d.coreXML()},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", d.documentXML()},
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create package part %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write package part %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *document) documentXML() string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, p := range d.paragraphs {
		switch p.kind {
		case paraHeading:
			b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading2"/><w:jc w:val="center"/>`)
			fmt.Fprintf(&b, `<w:spacing w:before="%d" w:after="%d"/></w:pPr>`, headingBeforeTw, headingAfterTw)
			fmt.Fprintf(&b, `<w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escapeXML(p.text))
		case paraBody:
			fmt.Fprintf(&b, `<w:p><w:pPr><w:spacing w:after="%d"/></w:pPr>`, paragraphAfterTw)
			fmt.Fprintf(&b, `<w:r><w:rPr><w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
				bodyRunHalfPts, escapeXML(p.text))
		case paraEmpty:
			b.WriteString(`<w:p/>`)
		case paraPageBreak:
			b.WriteString(`<w:p><w:pPr><w:pageBreakBefore/></w:pPr></w:p>`)
		case paraPlaceholder:
			b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
			fmt.Fprintf(&b, `<w:r><w:rPr><w:i/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escapeXML(p.text))
		}
	}

	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`, d.pageWidthTw, d.pageHeightTw)
	fmt.Fprintf(&b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`,
		marginTwips, marginTwips, marginTwips, marginTwips)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func (d *document) coreXML() string {
	title := d.title
	if title == "" {
		title = defaultTitle
	}
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	fmt.Fprintf(&b, `<dc:title>%s</dc:title>`, escapeXML(title))
	fmt.Fprintf(&b, `<dc:creator>%s</dc:creator>`, creatorName)
	fmt.Fprintf(&b, `<dc:description>%s</dc:description>`, docDescription)
	fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, time.Now().UTC().Format(time.RFC3339))
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

func escapeXML(s string) string {
	var b strings.Builder
	// EscapeText only fails on a failing writer; strings.Builder never does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const stylesXML = xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:outlineLvl w:val="1"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style>` +
	`</w:styles>`
