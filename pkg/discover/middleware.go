package discover

import "strings"

// NoMiddleware never assigns a middleware group.
func NoMiddleware(string) (string, bool) {
	return "", false
}

// MiddlewareMap assigns groups by exact dotted directory.
//
// Example:
//
//	discover.MiddlewareMap(map[string]string{
//	    "api":   "api",
//	    "admin": "auth",
//	})
func MiddlewareMap(groups map[string]string) MiddlewareMatcher {
	m := copyGroups(groups)
	return func(dir string) (string, bool) {
		mw, ok := m[dir]
		if !ok || mw == "" {
			return "", false
		}
		return mw, true
	}
}

// MiddlewareTree assigns groups by the longest matching dotted directory
// prefix, so "api.v1.billing" inherits the group of "api" unless "api.v1"
// or "api.v1.billing" has its own. The key "" matches every directory.
func MiddlewareTree(groups map[string]string) MiddlewareMatcher {
	m := copyGroups(groups)
	return func(dir string) (string, bool) {
		for {
			if mw, ok := m[dir]; ok && mw != "" {
				return mw, true
			}
			if dir == "" {
				return "", false
			}
			i := strings.LastIndex(dir, ".")
			if i < 0 {
				dir = ""
			} else {
				dir = dir[:i]
			}
		}
	}
}

func copyGroups(groups map[string]string) map[string]string {
	m := make(map[string]string, len(groups))
	for k, v := range groups {
		m[strings.Trim(k, ".")] = v
	}
	return m
}
