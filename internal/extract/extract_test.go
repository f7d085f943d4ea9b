package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Go engineer</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go, Kubernetes</w:t><w:br/><w:t>Postgres</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for entry, body := range files {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return path
}

func TestTextDocx(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "resume.DOCX", map[string]string{
		"[Content_Types].xml": "<Types/>",
		docxBody:              documentXML,
	})

	text, err := Text(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Go engineer\nSkills:\tGo, Kubernetes\nPostgres", text)
}

func TestTextDocxWithoutBody(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "broken.docx", map[string]string{"other.xml": "<x/>"})

	_, err := Text(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoDocumentBody)
	assert.Contains(t, err.Error(), "broken.docx")
}

func TestTextNotAnArchive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"fake.docx", "fake.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("definitely not a document"), 0o600))

		_, err := Text(path)
		assert.Error(t, err, name)
	}
}

func TestTextPlain(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "cv.txt")
	md := filepath.Join(dir, "cv.md")
	require.NoError(t, os.WriteFile(txt, []byte("Go developer\n"), 0o600))
	require.NoError(t, os.WriteFile(md, []byte("# Go developer"), 0o600))

	text, err := Text(txt)
	require.NoError(t, err)
	assert.Equal(t, "Go developer\n", text)

	text, err = Text(md)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# Go"))
}

func TestTextUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	text, err := Text(path)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.False(t, Supported(path))
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.PDF", "c.docx", "d.txt", "e.md"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.doc", "b", "c.rtf"} {
		assert.False(t, Supported(name), name)
	}
}

func TestFromReader(t *testing.T) {
	text, err := FromReader("notes.TXT", strings.NewReader("pasted upload"))
	require.NoError(t, err)
	assert.Equal(t, "pasted upload", text)

	text, err = FromReader("scan.tiff", strings.NewReader("binary"))
	require.NoError(t, err)
	assert.Empty(t, text)

	path := writeDocx(t, t.TempDir(), "cv.docx", map[string]string{docxBody: documentXML})
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	text, err = FromReader("cv.docx", f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Jane Doe\n"))
}
