package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNoFile     = errors.New("no file uploaded")
	ErrEmptyFile  = errors.New("uploaded file is empty")
	ErrNotPDF     = errors.New("only PDF files are allowed")
	ErrFileTooBig = errors.New("uploaded file is too large")
)

// AllowedExtensions: hanya PDF.
var AllowedExtensions = map[string]bool{".pdf": true}

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadPDFUpload membaca file multipart + validasi ekstensi, ukuran, dan magic bytes.
func ReadPDFUpload(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh == nil || strings.TrimSpace(fh.Filename) == "" {
		return nil, ErrNoFile
	}
	if !AllowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return nil, ErrNotPDF
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, ErrFileTooBig
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooBig
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	return &Upload{
		Filename:    filepath.Base(fh.Filename),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// FormPDF membaca field multipart dari request fiber.
func FormPDF(c *fiber.Ctx, field string, maxBytes int64) (*Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, ErrNoFile
	}
	return ReadPDFUpload(fh, maxBytes)
}

// IsUploadError: error validasi upload (→ 400).
func IsUploadError(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrNotPDF) || errors.Is(err, ErrFileTooBig)
}
