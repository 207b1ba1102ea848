package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WordNS is the WordprocessingML namespace declaration used by fixtures.
const WordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

// Run is one run of a fixture paragraph.
func Run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// BoldRun is a run with bold formatting.
func BoldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// Para wraps runs into a paragraph. Plain strings are turned into single runs.
func Para(runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		if !strings.HasPrefix(r, "<") {
			r = Run(r)
		}
		b.WriteString(r)
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Table builds a one-row table with one paragraph per cell.
func Table(cells ...string) string {
	var b strings.Builder
	b.WriteString("<w:tbl><w:tr>")
	for _, c := range cells {
		b.WriteString("<w:tc>" + c + "</w:tc>")
	}
	b.WriteString("</w:tr></w:tbl>")
	return b.String()
}

// DocumentXML wraps body content in a w:document root.
func DocumentXML(body ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + WordNS + `><w:body>` + strings.Join(body, "") + `</w:body></w:document>`
}

// HeaderXML wraps paragraphs in a w:hdr root.
func HeaderXML(paras ...string) string {
	return `<w:hdr ` + WordNS + `>` + strings.Join(paras, "") + `</w:hdr>`
}

// FooterXML wraps paragraphs in a w:ftr root.
func FooterXML(paras ...string) string {
	return `<w:ftr ` + WordNS + `>` + strings.Join(paras, "") + `</w:ftr>`
}

// BuildDocx zips parts into a .docx package. word/document.xml must be
// among them; [Content_Types].xml is added when absent.
func BuildDocx(t testing.TB, parts map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(parts)+1)
	if _, ok := parts["[Content_Types].xml"]; !ok {
		names = append(names, "[Content_Types].xml")
	}
	for name := range parts {
		names = append(names, name)
	}
	// "[Content_Types].xml" sorts before "word/..."
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		content, ok := parts[name]
		if !ok {
			content = contentTypes
		}
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// WriteDocx writes a .docx with the given body content to dir/name and
// returns its path.
func WriteDocx(t testing.TB, dir, name string, body ...string) string {
	t.Helper()
	return WriteDocxParts(t, dir, name, map[string]string{"word/document.xml": DocumentXML(body...)})
}

// WriteDocxParts writes a .docx built from parts to dir/name.
func WriteDocxParts(t testing.TB, dir, name string, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, BuildDocx(t, parts), 0600))
	return path
}

// ReadDocxPart returns the content of one part of a .docx file.
func ReadDocxPart(t testing.TB, path, part string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != part {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		return buf.String()
	}
	t.Fatalf("part %s not found in %s", part, path)
	return ""
}
