package storage

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"automark_backend/internals/constants"
)

// BuildKey: <dir>/<uuid><ext>. UUID mencegah tabrakan nama.
func BuildKey(h Hint) string {
	ext := strings.ToLower(filepath.Ext(h.Filename))
	if !validExt(ext) {
		ext = extForContentType(h.ContentType)
	}
	name := uuid.NewString() + ext

	dir := cleanDir(h.Dir)
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func cleanDir(dir string) string {
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = slugify(p); p != "" {
			out = append(out, p)
		}
	}
	return path.Join(out...)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 8 {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func extForContentType(ct string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])) {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// contentTypeFor: dari ekstensi, lalu sniff 512 byte pertama.
func contentTypeFor(filename string, data []byte) string {
	if ct := constants.ContentTypeFromExt(filename); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}
