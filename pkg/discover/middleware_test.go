package discover

import "testing"

func TestMiddlewareMap(t *testing.T) {
	match := MiddlewareMap(map[string]string{
		"api":      "api",
		".admin.":  "auth",
		"internal": "",
	})

	tests := []struct {
		dir    string
		want   string
		wantOK bool
	}{
		{"api", "api", true},
		{"admin", "auth", true},
		{"api.v1", "", false},
		{"internal", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := match(tt.dir)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("match(%q) = (%q, %v), want (%q, %v)", tt.dir, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMiddlewareTree(t *testing.T) {
	match := MiddlewareTree(map[string]string{
		"api":        "api",
		"api.v1.ops": "ops",
		"web":        "web",
	})

	tests := []struct {
		dir    string
		want   string
		wantOK bool
	}{
		{"api", "api", true},
		{"api.v1", "api", true},
		{"api.v1.ops", "ops", true},
		{"api.v1.ops.jobs", "ops", true},
		{"web.blog", "web", true},
		{"webhooks", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := match(tt.dir)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("match(%q) = (%q, %v), want (%q, %v)", tt.dir, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMiddlewareTreeCatchAll(t *testing.T) {
	match := MiddlewareTree(map[string]string{"": "web", "api": "api"})

	if got, ok := match(""); !ok || got != "web" {
		t.Errorf("match(\"\") = (%q, %v), want (web, true)", got, ok)
	}
	if got, ok := match("blog.posts"); !ok || got != "web" {
		t.Errorf("match(blog.posts) = (%q, %v), want (web, true)", got, ok)
	}
	if got, ok := match("api.v2"); !ok || got != "api" {
		t.Errorf("match(api.v2) = (%q, %v), want (api, true)", got, ok)
	}
}

func TestNoMiddleware(t *testing.T) {
	for _, dir := range []string{"", "api", "admin.settings"} {
		if got, ok := NoMiddleware(dir); ok || got != "" {
			t.Errorf("NoMiddleware(%q) = (%q, %v)", dir, got, ok)
		}
	}
}
