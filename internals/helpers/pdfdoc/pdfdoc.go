// Package pdfdoc: render halaman PDF ke JPEG dan ambil text layer (MuPDF via go-fitz).
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

const (
	// RasterDPI: resolusi render halaman untuk grading.
	RasterDPI   = 300
	jpegQuality = 95
)

var (
	ErrCorruptPDF     = errors.New("pdf rusak atau tidak bisa dibuka")
	ErrPageOutOfRange = errors.New("halaman di luar jangkauan")
)

func open(pdf []byte) (*fitz.Document, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}
	return doc, nil
}

// PageCount: jumlah halaman; error bila PDF tidak valid.
func PageCount(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, fmt.Errorf("%w: input kosong", ErrCorruptPDF)
	}
	doc, err := open(pdf)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Rasterize merender setiap halaman (urut) ke JPEG 300 DPI.
// Input kosong → slice kosong tanpa error. Satu halaman gagal → seluruh batch gagal.
func Rasterize(pdf []byte) ([][]byte, error) {
	if len(pdf) == 0 {
		return [][]byte{}, nil
	}
	doc, err := open(pdf)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, RasterDPI)
		if err != nil {
			return nil, fmt.Errorf("render halaman %d: %w", n+1, err)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, fmt.Errorf("encode halaman %d: %w", n+1, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}

// ExtractText menggabungkan text layer tiap halaman sesuai urutan.
// Halaman tanpa teks menyumbang "".
func ExtractText(pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", nil
	}
	doc, err := open(pdf)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb bytes.Buffer
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("ekstrak teks halaman %d: %w", n+1, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
