package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPackageParts(t *testing.T) {
	doc := &document{
		title:        "Quarterly Report",
		pageWidthTw:  12240,
		pageHeightTw: 15840,
		paragraphs: []paragraph{
			{kind: paraHeading, text: "SUMMARY"},
			{kind: paraBody, text: "All numbers are up."},
		},
	}

	data, err := doc.bytes()
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	got := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(content)
	}

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/document.xml",
	} {
		assert.Contains(t, got, name)
	}

	assert.Contains(t, got["docProps/core.xml"], "<dc:title>Quarterly Report</dc:title>")
	assert.Contains(t, got["docProps/core.xml"], "<dc:creator>ConvertStudio</dc:creator>")
	assert.Contains(t, got["word/styles.xml"], `w:styleId="Heading2"`)
	assert.Contains(t, got["_rels/.rels"], "word/document.xml")
}

func TestDocumentXMLDefaultTitle(t *testing.T) {
	doc := &document{pageWidthTw: 12240, pageHeightTw: 15840}

	data, err := doc.bytes()
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	for _, f := range r.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		assert.Contains(t, string(content), "<dc:title>"+defaultTitle+"</dc:title>")
		return
	}
	t.Fatal("docProps/core.xml missing")
}

func TestDocumentXMLEscapesTitle(t *testing.T) {
	doc := &document{title: "R&D <draft>", pageWidthTw: 1, pageHeightTw: 1}
	assert.Contains(t, doc.coreXML(), "R&amp;D &lt;draft&gt;")
}

func TestPointsToTwips(t *testing.T) {
	assert.Equal(t, 12240, pointsToTwips(612))
	assert.Equal(t, 15840, pointsToTwips(792))
	assert.Equal(t, 11906, pointsToTwips(595.28))
}

func TestDocumentXMLSectionLast(t *testing.T) {
	doc := &document{
		pageWidthTw:  12240,
		pageHeightTw: 15840,
		paragraphs:   []paragraph{{kind: paraBody, text: "x"}},
	}

	xml := doc.documentXML()
	sectIdx := strings.Index(xml, "<w:sectPr>")
	paraIdx := strings.Index(xml, "<w:p>")
	require.NotEqual(t, -1, sectIdx)
	require.NotEqual(t, -1, paraIdx)
	assert.Greater(t, sectIdx, paraIdx, "section properties close the body")
}
