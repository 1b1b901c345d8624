package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
// An empty string produces a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	streams := make([]string, len(pages))
	for i, text := range pages {
		if text != "" {
			streams[i] = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
	}
	return buildPDFStreams(streams...)
}

// buildPDFStreams writes a minimal PDF whose pages carry the given raw content streams.
func buildPDFStreams(streams ...string) []byte {
	n := len(streams)
	fontID := 3 + 2*n
	objects := make([]string, fontID)

	kids := ""
	for i := range streams {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n)
	for i, stream := range streams {
		pageID, contentID := 3+2*i, 4+2*i
		objects[pageID-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, contentID)
		objects[contentID-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}
	objects[fontID-1] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractor_SupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().SupportedExtensions())
}

func TestExtractor_SkipsBlankPages(t *testing.T) {
	doc := domain.UploadedDocument{
		Name: "file.pdf",
		Data: buildPDF("Cells are the unit of life", "", "Osmosis moves water"),
	}

	pages, err := New().Extract(context.Background(), doc)

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 0, pages[0].Index)
	assert.Contains(t, pages[0].Text, "Cells are the unit of life")
	assert.Equal(t, 2, pages[1].Index)
	assert.Contains(t, pages[1].Text, "Osmosis moves water")
}

func TestExtractor_IsRepeatable(t *testing.T) {
	doc := domain.UploadedDocument{Name: "file.pdf", Data: buildPDF("one", "two")}
	e := New()

	first, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractor_AllBlank(t *testing.T) {
	doc := domain.UploadedDocument{Name: "scan.pdf", Data: buildPDF("", "")}

	pages, err := New().Extract(context.Background(), doc)

	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractor_CorruptInput(t *testing.T) {
	full := buildPDF("hello")
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("definitely not a pdf")},
		{"truncated", full[:len(full)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := New().Extract(context.Background(), domain.UploadedDocument{Name: "bad.pdf", Data: tt.data})

			assert.ErrorIs(t, err, domain.ErrDocumentFormat)
			assert.Nil(t, pages)
		})
	}
}

func TestExtractor_UndecodablePageRejectsDocument(t *testing.T) {
	doc := domain.UploadedDocument{
		Name: "notes.pdf",
		Data: buildPDFStreams(
			"BT /F1 12 Tf 72 712 Td (Cells are the unit of life) Tj ET",
			"BT /F1 Tf 72 712 Td (lost page) Tj ET",
			"BT /F1 12 Tf 72 712 Td (Osmosis moves water) Tj ET",
		),
	}

	pages, err := New().Extract(context.Background(), doc)

	require.ErrorIs(t, err, domain.ErrDocumentFormat)
	assert.Contains(t, err.Error(), "notes.pdf page 2")
	assert.Nil(t, pages)
}

func TestExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, domain.UploadedDocument{Name: "file.pdf", Data: buildPDF("hello")})

	assert.ErrorIs(t, err, context.Canceled)
}
