// Package routepath cleans the paths written in route files before they
// are joined with a file's URL prefix.
package routepath

import (
	"errors"
	"strings"
)

// Path errors. Clean wraps none of them; compare with errors.Is.
var (
	ErrBackslash     = errors.New("path contains backslash")
	ErrNullByte      = errors.New("path contains null byte")
	ErrPercentEscape = errors.New("invalid percent escape sequence")
	ErrEscapesRoot   = errors.New("path escapes its prefix via ..")
	ErrQuery         = errors.New("path contains a query string")
)

// Clean returns the canonical form of a route path:
//
//	""             → "/"
//	"users"        → "/users"
//	"/a//b/"       → "/a/b"
//	"/a/./b"       → "/a/b"
//	"/a/../b"      → "/b"
//
// Paths a route file could use to reach outside its prefix ("/../x"),
// and paths no router would match literally, are rejected. Pattern
// segments such as "{id}" or "*" pass through unchanged.
func Clean(p string) (string, error) {
	if p == "" || p == "/" {
		return "/", nil
	}
	if strings.Contains(p, `\`) {
		return "", ErrBackslash
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", ErrNullByte
	}
	if strings.ContainsRune(p, '?') && !inBraces(p, strings.IndexByte(p, '?')) {
		return "", ErrQuery
	}
	if err := checkEscapes(p); err != nil {
		return "", err
	}

	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	return "/" + strings.Join(out, "/"), nil
}

// checkEscapes validates every %XX outside of {param:regexp} segments.
func checkEscapes(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' || inBraces(p, i) {
			continue
		}
		if i+2 >= len(p) || !isHex(p[i+1]) || !isHex(p[i+2]) {
			return ErrPercentEscape
		}
		i += 2
	}
	return nil
}

// inBraces reports whether p[i] sits inside a {...} pattern segment.
func inBraces(p string, i int) bool {
	depth := 0
	for j := 0; j < i; j++ {
		switch p[j] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth > 0
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
