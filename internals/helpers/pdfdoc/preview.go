package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	previewDPI     = 110
	previewQuality = 80
	// DefaultPreviewWidth dipakai bila client tidak meminta ukuran.
	DefaultPreviewWidth = 1000
	MaxPreviewWidth     = 2000
)

// PreviewPage merender satu halaman (1-based) sebagai WebP, lebar maksimum maxWidth.
func PreviewPage(pdf []byte, page, maxWidth int) ([]byte, error) {
	doc, err := open(pdf)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("%w: halaman %d dari %d", ErrPageOutOfRange, page, doc.NumPage())
	}
	if maxWidth <= 0 {
		maxWidth = DefaultPreviewWidth
	}
	if maxWidth > MaxPreviewWidth {
		maxWidth = MaxPreviewWidth
	}

	img, err := doc.ImageDPI(page-1, previewDPI)
	if err != nil {
		return nil, fmt.Errorf("render halaman %d: %w", page, err)
	}
	out := imaging.Clone(img)
	if out.Bounds().Dx() > maxWidth {
		out = imaging.Resize(out, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
