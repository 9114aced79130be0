package routepath

import (
	"errors"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "empty", input: "", want: "/"},
		{name: "root", input: "/", want: "/"},
		{name: "no leading slash", input: "about", want: "/about"},
		{name: "collapse slashes", input: "/blog//post", want: "/blog/post"},
		{name: "trailing slash", input: "/blog/", want: "/blog"},
		{name: "single dot", input: "/blog/./post", want: "/blog/post"},
		{name: "double dot", input: "/blog/posts/../other", want: "/blog/other"},
		{name: "double dot to root", input: "/blog/../", want: "/"},
		{name: "param", input: "/{id}", want: "/{id}"},
		{name: "regexp param", input: "/{slug:[a-z-]+}/", want: "/{slug:[a-z-]+}"},
		{name: "regexp with percent", input: "/{code:%[0-9]+}", want: "/{code:%[0-9]+}"},
		{name: "regexp with question mark", input: "/{v:ab?}", want: "/{v:ab?}"},
		{name: "wildcard", input: "/files/*", want: "/files/*"},
		{name: "valid escape", input: "/a%20b", want: "/a%20b"},
		{name: "escapes root", input: "/../secret", wantErr: ErrEscapesRoot},
		{name: "escapes root later", input: "/a/../../b", wantErr: ErrEscapesRoot},
		{name: "backslash", input: `/a\b`, wantErr: ErrBackslash},
		{name: "literal nul", input: "/a\x00", wantErr: ErrNullByte},
		{name: "encoded nul", input: "/a%00", wantErr: ErrNullByte},
		{name: "bad escape", input: "/a%GG", wantErr: ErrPercentEscape},
		{name: "short escape", input: "/a%2", wantErr: ErrPercentEscape},
		{name: "query", input: "/search?q=1", wantErr: ErrQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Clean(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
