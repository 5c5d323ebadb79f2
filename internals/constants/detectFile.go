package constants

import (
	"path/filepath"
	"strings"
)

// ContentTypeFromExt: content type untuk ekstensi yang kita kenal, "" kalau tidak dikenal.
func ContentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
