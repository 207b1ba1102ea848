package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/document"
)

func TestParse_Lines(t *testing.T) {
	doc := Parse("Dear {{name}},\n\nTotal: {{total}}\n")
	paras := doc.Paragraphs()
	require.Len(t, paras, 4)
	assert.Equal(t, "Dear {{name}},", paras[0].Paragraph.Text())
	assert.Equal(t, "", paras[3].Paragraph.Text(), "trailing newline keeps an empty last line")

	paras[0].Paragraph.SetText("Dear Ann,")
	assert.Equal(t, "Dear Ann,\n\nTotal: {{total}}\n", doc.String())
}

func TestParse_CRLF(t *testing.T) {
	doc := Parse("a\r\nb")
	doc.Paragraphs()[1].Paragraph.SetText("c")
	assert.Equal(t, "a\r\nc", doc.String())
}

func TestStore_LoadSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "letter.txt")
	require.NoError(t, os.WriteFile(in, []byte("Hi {{x}}"), 0600))

	doc, err := Store{}.Load(in)
	require.NoError(t, err)
	doc.Paragraphs()[0].Paragraph.SetText("Hi there")

	out := filepath.Join(dir, "out.txt")
	require.NoError(t, doc.Save(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Hi there", string(data))

	_, err = Store{}.Load(filepath.Join(dir, "absent.txt"))
	var loadErr *document.TemplateLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestRegistered(t *testing.T) {
	s, err := document.StoreFor("notes.md")
	require.NoError(t, err)
	assert.Equal(t, ".md", s.Extension())

	s, err = document.StoreFor("letter.tmpl")
	require.NoError(t, err)
	assert.Equal(t, ".txt", s.Extension(), "unknown extensions fall back to text")
}
