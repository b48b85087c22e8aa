package filemgr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartForm(t *testing.T, field string, files map[string][]byte) *multipart.Form {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm
}

func TestSaveFormFileImage(t *testing.T) {
	m := New(t.TempDir(), 1<<20)
	form := multipartForm(t, "image", map[string][]byte{"sofa.png": pngBytes(t)})

	url, err := m.SaveFormFile(form, "image", EntityProduct, PicPhoto, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/product/photo/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	name := filepath.Base(url)
	_, err = os.Stat(filepath.Join(m.Root, "product", "photo", name))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(m.Root, "product", "thumb", name))
	assert.NoError(t, err)

	m.Remove(url)
	_, err = os.Stat(filepath.Join(m.Root, "product", "photo", name))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveFormFileRejects(t *testing.T) {
	m := New(t.TempDir(), 1<<20)

	_, err := m.SaveFormFile(multipartForm(t, "image", nil), "image", EntityProduct, PicPhoto, true)
	assert.ErrorIs(t, err, ErrMissingFile)

	url, err := m.SaveFormFile(multipartForm(t, "image", nil), "image", EntityProduct, PicPhoto, false)
	assert.NoError(t, err)
	assert.Empty(t, url)

	form := multipartForm(t, "image", map[string][]byte{"run.exe": []byte("MZ")})
	_, err = m.SaveFormFile(form, "image", EntityProduct, PicPhoto, true)
	assert.ErrorIs(t, err, ErrInvalidExtension)

	form = multipartForm(t, "image", map[string][]byte{"fake.png": []byte("plain text, not an image")})
	_, err = m.SaveFormFile(form, "image", EntityProduct, PicPhoto, true)
	assert.ErrorIs(t, err, ErrInvalidMIME)
}

func TestSaveFormFileTooLarge(t *testing.T) {
	m := New(t.TempDir(), 64)
	form := multipartForm(t, "idProofDocument", map[string][]byte{"id.pdf": append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 200)...)})
	_, err := m.SaveFormFile(form, "idProofDocument", EntityKYC, PicDocument, true)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveFormFilesDocument(t *testing.T) {
	m := New(t.TempDir(), 1<<20)
	form := multipartForm(t, "images", map[string][]byte{
		"a.pdf": []byte("%PDF-1.4\nhello"),
		"b.png": pngBytes(t),
	})
	urls, err := m.SaveFormFiles(form, "images", EntityKYC, PicDocument, 5)
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	for _, u := range urls {
		assert.True(t, strings.HasPrefix(u, "/uploads/kyc/docs/"))
	}

	_, err = m.SaveFormFiles(form, "images", EntityKYC, PicDocument, 1)
	assert.Error(t, err)
}
