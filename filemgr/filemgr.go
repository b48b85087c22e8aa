package filemgr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"makeeasy/apperr"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// URLPrefix is where uploaded files are served from.
const URLPrefix = "/uploads"

// Manager writes uploads under Root and hands back public URLs.
type Manager struct {
	Root    string
	MaxSize int64
}

func New(root string, maxSize int64) *Manager {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Manager{Root: root, MaxSize: maxSize}
}

func (m *Manager) ResolvePath(entity EntityType, picType PictureType) string {
	subfolder := PictureSubfolders[picType]
	if subfolder == "" {
		subfolder = "misc"
	}
	return filepath.Join(m.Root, strings.ToLower(string(entity)), subfolder)
}

// URL is the public path of a stored file.
func URL(entity EntityType, picType PictureType, filename string) string {
	subfolder := PictureSubfolders[picType]
	if subfolder == "" {
		subfolder = "misc"
	}
	return path.Join(URLPrefix, strings.ToLower(string(entity)), subfolder, filename)
}

// SaveFile validates and writes reader to destDir, returning the stored name.
func (m *Manager) SaveFile(reader io.Reader, header *multipart.FileHeader, destDir string, picType PictureType, ext string) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read header: %w", err)
	}
	mimeType := http.DetectContentType(buf[:n])
	if mimeType == "application/octet-stream" {
		if formMime := header.Header.Get("Content-Type"); formMime != "" {
			mimeType = formMime
		}
	}
	if !isMIMEAllowed(mimeType, picType) {
		return "", fmt.Errorf("%w: %s for %s", ErrInvalidMIME, mimeType, picType)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", destDir, err)
	}

	filename := ensureSafeFilename(uuid.New().String(), ext)
	fullPath := filepath.Join(destDir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", fullPath, err)
	}

	written, err := io.Copy(out, io.LimitReader(io.MultiReader(bytes.NewReader(buf[:n]), reader), m.MaxSize+1))
	out.Close()
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write body: %w", err)
	}
	if written > m.MaxSize {
		os.Remove(fullPath)
		return "", ErrFileTooLarge
	}

	logrus.WithFields(logrus.Fields{"path": fullPath, "size": written, "mime": mimeType}).Debug("file stored")
	return filename, nil
}

// SaveFileForEntity stores one upload and returns its public URL. Images are
// re-encoded as JPEG, which drops EXIF data, and get a 200px thumbnail.
func (m *Manager) SaveFileForEntity(file multipart.File, header *multipart.FileHeader, entity EntityType, picType PictureType) (string, error) {
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isExtensionAllowed(ext, picType) {
		return "", fmt.Errorf("%w: %s for %s", ErrInvalidExtension, ext, picType)
	}
	if header.Size > m.MaxSize {
		return "", ErrFileTooLarge
	}

	buf, err := io.ReadAll(io.LimitReader(file, m.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if int64(len(buf)) > m.MaxSize {
		return "", ErrFileTooLarge
	}

	dest := m.ResolvePath(entity, picType)
	if isImageType(picType) {
		if !isMIMEAllowed(http.DetectContentType(buf), picType) {
			return "", fmt.Errorf("%w for %s", ErrInvalidMIME, picType)
		}
		if img, _, err := image.Decode(bytes.NewReader(buf)); err == nil {
			if stripped, err := stripEXIF(img); err == nil {
				name, err := m.SaveFile(stripped, header, dest, picType, ".jpg")
				if err != nil {
					return "", err
				}
				if err := m.generateThumbnail(img, entity, name); err != nil {
					logrus.WithError(err).Warn("thumbnail failed")
				}
				return URL(entity, picType, name), nil
			}
		}
		// fallback to normal save if decode fails
	}

	name, err := m.SaveFile(bytes.NewReader(buf), header, dest, picType, ext)
	if err != nil {
		return "", err
	}
	return URL(entity, picType, name), nil
}

func (m *Manager) SaveFormFile(form *multipart.Form, formKey string, entity EntityType, picType PictureType, required bool) (string, error) {
	var files []*multipart.FileHeader
	if form != nil {
		files = form.File[formKey]
	}
	if len(files) == 0 {
		if required {
			return "", fmt.Errorf("%w: %s", ErrMissingFile, formKey)
		}
		return "", nil
	}
	file, err := files[0].Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", formKey, err)
	}
	return m.SaveFileForEntity(file, files[0], entity, picType)
}

// SaveFormFiles stores every file under formKey. On failure the files already
// written are removed.
func (m *Manager) SaveFormFiles(form *multipart.Form, formKey string, entity EntityType, picType PictureType, limit int) ([]string, error) {
	var files []*multipart.FileHeader
	if form != nil {
		files = form.File[formKey]
	}
	if limit > 0 && len(files) > limit {
		return nil, fmt.Errorf("too many files for %s: max %d", formKey, limit)
	}

	saved := make([]string, 0, len(files))
	for _, hdr := range files {
		file, err := hdr.Open()
		if err != nil {
			m.Remove(saved...)
			return nil, fmt.Errorf("open %s: %w", hdr.Filename, err)
		}
		url, err := m.SaveFileForEntity(file, hdr, entity, picType)
		if err != nil {
			m.Remove(saved...)
			return nil, fmt.Errorf("save %s: %w", hdr.Filename, err)
		}
		saved = append(saved, url)
	}
	return saved, nil
}

// Remove deletes stored files by public URL. Failures are logged only.
func (m *Manager) Remove(urls ...string) {
	for _, u := range urls {
		if !strings.HasPrefix(u, URLPrefix+"/") {
			continue
		}
		rel := strings.TrimPrefix(u, URLPrefix+"/")
		if strings.Contains(rel, "..") {
			continue
		}
		p := filepath.Join(m.Root, filepath.FromSlash(rel))
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", p).Warn("remove upload failed")
		}
	}
}

// Form parses a multipart body. Requests without one yield a nil form.
func (m *Manager) Form(r *http.Request) (*multipart.Form, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, nil
	}
	if err := r.ParseMultipartForm(m.MaxSize); err != nil {
		return nil, apperr.BadRequest("Invalid multipart form")
	}
	return r.MultipartForm, nil
}

// UploadError turns a rejected upload into a client error.
func UploadError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.New(http.StatusBadRequest, err.Error())
}
