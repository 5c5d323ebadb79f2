package helpers

import (
	"strings"
	"unicode"
)

// UsernameFromIdentity: kandidat username dari email / nama akun Google.
func UsernameFromIdentity(email, name string) string {
	base := email
	if i := strings.IndexByte(base, '@'); i > 0 {
		base = base[:i]
	}
	if strings.TrimSpace(base) == "" {
		base = name
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '.', r == '_', r == '-':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, strings.TrimSpace(base))
	if len(base) < 3 {
		base = "user_" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return base
}
