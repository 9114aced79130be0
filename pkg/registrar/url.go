package registrar

import (
	"fmt"
	"net/url"
	"strings"
)

// URL builds the path of the route registered under name, filling
// "{param}" and "{param:regexp}" segments from params. A trailing "*"
// is filled from params["*"].
//
//	c.URL("api.users.show", map[string]string{"id": "42"}) // "/api/users/42"
func (c *Chi) URL(name string, params map[string]string) (string, error) {
	route, ok := c.Route(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return Expand(route.Pattern, params)
}

// Expand fills the parameters of a chi pattern.
func Expand(pattern string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(pattern))

	for i := 0; i < len(pattern); {
		switch pattern[i] {
		case '{':
			end := closingBrace(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed parameter in %q", ErrInvalidPattern, pattern)
			}
			key := pattern[i+1 : end]
			if colon := strings.IndexByte(key, ':'); colon >= 0 {
				key = key[:colon]
			}
			val, ok := params[key]
			if !ok || val == "" {
				return "", fmt.Errorf("%w: %s in %q", ErrMissingParam, key, pattern)
			}
			b.WriteString(url.PathEscape(val))
			i = end + 1

		case '*':
			val, ok := params["*"]
			if !ok {
				return "", fmt.Errorf("%w: * in %q", ErrMissingParam, pattern)
			}
			// Wildcards span segments; escape each one.
			segs := strings.Split(val, "/")
			for j, s := range segs {
				segs[j] = url.PathEscape(s)
			}
			b.WriteString(strings.Join(segs, "/"))
			i++

		default:
			b.WriteByte(pattern[i])
			i++
		}
	}

	return b.String(), nil
}

// closingBrace finds the brace closing the one at start, allowing nested
// braces inside regexp constraints such as {id:[0-9]{3}}.
func closingBrace(pattern string, start int) int {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
