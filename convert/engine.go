// Package convert implements the PDF to DOCX converter engine: pure,
// in-memory transformation of source bytes to output-document bytes. The
// engine never returns an error; every failure mode is captured in the
// ConversionOutcome.
package convert

import (
	"strings"
	"time"
	"unicode"

	"convertstudio/models"
)

// HeadingDetector decides whether an extracted line is a heading. The
// default heuristic (short and entirely upper-case) is known-fragile and
// kept swappable for that reason.
type HeadingDetector func(line string) bool

// PageSplitter splits whole-document text into page-aligned chunks.
type PageSplitter func(text string) []string

// maxHeadingLen is the length ceiling for the default heading heuristic.
const maxHeadingLen = 50

// DefaultHeadingDetector flags lines under 50 characters that contain at
// least one letter and equal their upper-cased form.
func DefaultHeadingDetector(line string) bool {
	if len(line) >= maxHeadingLen || line != strings.ToUpper(line) {
		return false
	}
	for _, r := range line {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// DefaultPageSplitter splits on triple newlines, the separator the
// extractor emits between pages.
func DefaultPageSplitter(text string) []string {
	return strings.Split(text, pageSeparator)
}

// Engine converts PDF bytes to DOCX bytes.
type Engine struct {
	extractor  Extractor
	isHeading  HeadingDetector
	splitPages PageSplitter
}

// Option customizes an Engine.
type Option func(*Engine)

// WithExtractor replaces the PDF extraction backend.
func WithExtractor(x Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithHeadingDetector replaces the heading heuristic.
func WithHeadingDetector(f HeadingDetector) Option {
	return func(e *Engine) { e.isHeading = f }
}

// WithPageSplitter replaces the page-split heuristic.
func WithPageSplitter(f PageSplitter) Option {
	return func(e *Engine) { e.splitPages = f }
}

// NewEngine builds an Engine with the default extractor and heuristics.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		extractor:  NewPDFExtractor(),
		isHeading:  DefaultHeadingDetector,
		splitPages: DefaultPageSplitter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convert transforms PDF bytes into a DOCX document. Wall-clock time is
// measured and reported in the outcome regardless of success. On failure
// no partial output bytes are returned.
func (e *Engine) Convert(pdfBytes []byte) models.ConversionOutcome {
	start := time.Now()

	extraction, err := e.extractor.Extract(pdfBytes)
	if err != nil {
		return failure(err.Error(), start)
	}

	doc := e.assemble(extraction)

	data, err := doc.bytes()
	if err != nil {
		return failure("serialize document: "+err.Error(), start)
	}

	return models.ConversionOutcome{
		Success:          true,
		OutputBytes:      data,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// assemble builds the document model from extracted text: one chunk of
// paragraphs per page, a page break before every page except the first,
// and the first page's geometry applied uniformly.
func (e *Engine) assemble(extraction *Extraction) *document {
	doc := &document{
		title:        extraction.Title,
		pageWidthTw:  pointsToTwips(extraction.PageWidth),
		pageHeightTw: pointsToTwips(extraction.PageHeight),
	}

	pageTexts := e.splitPages(extraction.Text)
	pageCount := len(pageTexts)
	if extraction.PageCount < pageCount {
		pageCount = extraction.PageCount
	}

	emitted := 0
	for pageIndex := 0; pageIndex < pageCount; pageIndex++ {
		if pageIndex > 0 {
			doc.paragraphs = append(doc.paragraphs, paragraph{kind: paraPageBreak})
		}

		for _, line := range strings.Split(pageTexts[pageIndex], "\n") {
			if strings.TrimSpace(line) == "" {
				// Blank lines preserved as empty paragraphs for spacing.
				doc.paragraphs = append(doc.paragraphs, paragraph{kind: paraEmpty})
				continue
			}
			if e.isHeading(line) {
				doc.paragraphs = append(doc.paragraphs, paragraph{kind: paraHeading, text: strings.TrimSpace(line)})
			} else {
				doc.paragraphs = append(doc.paragraphs, paragraph{kind: paraBody, text: line})
			}
			emitted++
		}
	}

	// Empty or unextractable documents still produce one section.
	if emitted == 0 {
		doc.paragraphs = []paragraph{{kind: paraPlaceholder, text: placeholderMessage}}
	}

	return doc
}

// pointsToTwips converts PDF points to OOXML twips (20 twips per point).
func pointsToTwips(points float64) int {
	return int(points*20 + 0.5)
}

func failure(message string, start time.Time) models.ConversionOutcome {
	return models.ConversionOutcome{
		Success:          false,
		ErrorMessage:     message,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}
