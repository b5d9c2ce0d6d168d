package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the raw material the engine builds a document from: the
// plain text of the whole PDF with pages separated by triple newlines, the
// page count, and the first page's geometry in points.
type Extraction struct {
	Text       string
	Title      string
	PageCount  int
	PageWidth  float64
	PageHeight float64
}

// Extractor pulls text and geometry out of PDF bytes. The production
// implementation uses the ledongthuc/pdf text layer; tests substitute
// canned extractions.
type Extractor interface {
	Extract(pdfBytes []byte) (*Extraction, error)
}

// US Letter in points, used when a PDF carries no readable MediaBox.
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// pageSeparator joins per-page text so the engine's page splitter can
// recover page boundaries.
const pageSeparator = "\n\n\n"

// pdfExtractor reads the embedded text layer. Scanned (image-only) PDFs
// yield no text and end up as a placeholder document downstream.
type pdfExtractor struct{}

// NewPDFExtractor returns the default PDF-backed Extractor.
func NewPDFExtractor() Extractor {
	return pdfExtractor{}
}

func (pdfExtractor) Extract(pdfBytes []byte) (ex *Extraction, err error) {
	// The pdf package panics on some malformed inputs; the engine contract
	// is that every failure surfaces as an error.
	defer func() {
		if r := recover(); r != nil {
			ex = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("parse PDF: %w", err)
	}

	numPages := reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}

		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			return nil, fmt.Errorf("read PDF page %d: %w", i, pageErr)
		}
		// Blank pages stay in the slice so page numbering survives the
		// separator round trip.
		pages = append(pages, strings.TrimSpace(text))
	}

	width, height := pageGeometry(reader)

	return &Extraction{
		Text:       strings.Join(pages, pageSeparator),
		Title:      docTitle(reader),
		PageCount:  len(pages),
		PageWidth:  width,
		PageHeight: height,
	}, nil
}

// pageGeometry returns the first page's MediaBox dimensions in points,
// falling back to US Letter. All output pages share this geometry; the
// uniform-page-size assumption is a documented limitation.
func pageGeometry(r *pdf.Reader) (width, height float64) {
	width, height = defaultPageWidth, defaultPageHeight

	if r.NumPage() < 1 {
		return width, height
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return width, height
	}

	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return width, height
	}

	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w > 0 && h > 0 {
		width, height = w, h
	}
	return width, height
}

func docTitle(r *pdf.Reader) string {
	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return ""
	}
	title := info.Key("Title")
	if title.Kind() != pdf.String {
		return ""
	}
	return title.RawString()
}
