package routepath

import (
	"errors"
	"testing"
)

const origin = "http://localhost:3000/"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		want    string
		wantErr error
	}{
		{name: "empty", href: "", want: "/"},
		{name: "root", href: "/", want: "/"},
		{name: "relative", href: "about", want: "/about"},
		{name: "origin relative", href: "/prefix/123", want: "/prefix/123"},
		{name: "absolute", href: "http://localhost:3000/prefix/123", want: "/prefix/123"},
		{name: "absolute root", href: "http://localhost:3000", want: "/"},
		{name: "absolute with query", href: "http://localhost:3000?x=1", want: "/?x=1"},
		{name: "protocol relative", href: "//localhost:3000/a", want: "/a"},
		{name: "empty segment kept", href: "//b", want: "//b"},
		{name: "query and fragment kept", href: "/a?b=c#d", want: "/a?b=c#d"},
		{name: "foreign origin", href: "https://example.com/a", wantErr: ErrForeignOrigin},
		{name: "port prefix", href: "http://localhost:30001/a", wantErr: ErrForeignOrigin},
		{name: "backslash", href: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "nul", href: "/a%00b", wantErr: ErrNullByteInPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(origin, tt.href)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Normalize(%q) error = %v, want %v", tt.href, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.href, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestNormalizeWithoutOrigin(t *testing.T) {
	if _, err := Normalize("", "http://localhost:3000/a"); !errors.Is(err, ErrForeignOrigin) {
		t.Errorf("absolute URL without origin should be foreign, got %v", err)
	}
	if got, err := Normalize("", "/a"); err != nil || got != "/a" {
		t.Errorf("Normalize(\"\", /a) = %q, %v", got, err)
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/a", true},
		{"a/b", true},
		{"http://localhost:3000/a", true},
		{"//localhost:3000/a", true},
		{"https://example.com/", false},
		{"//example.com/a", false},
		{"#top", false},
		{"", false},
		{"mailto:someone@example.com", false},
		{"javascript:void(0)", false},
	}
	for _, tt := range tests {
		if got := SameOrigin(origin, tt.href); got != tt.want {
			t.Errorf("SameOrigin(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestAbsolute(t *testing.T) {
	if got := Absolute(origin, "/a"); got != "http://localhost:3000/a" {
		t.Errorf("Absolute() = %q", got)
	}
	if got := Absolute("http://localhost:3000", "a"); got != "http://localhost:3000/a" {
		t.Errorf("Absolute() = %q", got)
	}
}

func TestSplit(t *testing.T) {
	path, query, fragment := Split("/a/b?x=1&y=2#frag?not")
	if path != "/a/b" || query != "x=1&y=2" || fragment != "frag?not" {
		t.Errorf("Split() = %q, %q, %q", path, query, fragment)
	}
	if got := Path("/only"); got != "/only" {
		t.Errorf("Path() = %q", got)
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:3000/users/1?x=1", "http://localhost:3000"},
		{"https://example.com", "https://example.com"},
		{"https://example.com#top", "https://example.com"},
		{"/users/1", ""},
		{"//example.com/x", ""},
	}
	for _, tt := range tests {
		if got := Origin(tt.in); got != tt.want {
			t.Errorf("Origin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
