package router

import (
	"testing"
)

func TestMatchSelector(t *testing.T) {
	link := Link{
		Href: "/x",
		Attrs: map[string]string{
			"class":     "nav  primary",
			"id":        "home",
			"data-link": "",
			"rel":       "next",
		},
	}

	tests := []struct {
		selector string
		want     bool
	}{
		{"a", true},
		{"*", true},
		{"a.nav", true},
		{".primary", true},
		{"a.nav.primary", true},
		{"a.missing", false},
		{"#home", true},
		{"a#other", false},
		{"a[data-link]", true},
		{"[rel=next]", true},
		{`a[rel="next"]`, true},
		{"a[rel=prev]", false},
		{"a[target]", false},
		{"button", false},
		{"area", false},
		{"button, a.nav", true},
		{"", false},
		{"a[broken", false},
	}
	for _, tt := range tests {
		if got := MatchSelector(tt.selector, link); got != tt.want {
			t.Errorf("MatchSelector(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestInterceptLink(t *testing.T) {
	h := NewMemoryHistory("http://localhost:3000/")
	r := New(WithHistory(h))
	r.Configure(ConfigPatch{LinkSelector: Ptr("a[data-link]")})
	mustAdd(t, r, "user", "/users/{id}", RouteOptions{})

	routed := map[string]string{"data-link": ""}
	tests := []struct {
		name string
		link Link
		want bool
	}{
		{"relative", Link{Href: "/users/1", Attrs: routed}, true},
		{"absolute same origin", Link{Href: "http://localhost:3000/users/2", Attrs: routed}, true},
		{"foreign", Link{Href: "https://example.com/", Attrs: routed}, false},
		{"not selected", Link{Href: "/users/3"}, false},
		{"modified click", Link{Href: "/users/4", Attrs: routed, Modified: true}, false},
		{"new tab", Link{Href: "/users/5", Attrs: map[string]string{"data-link": "", "target": "_blank"}}, false},
		{"self target", Link{Href: "/users/6", Attrs: map[string]string{"data-link": "", "target": "_self"}}, true},
		{"download", Link{Href: "/users/7", Attrs: map[string]string{"data-link": "", "download": ""}}, false},
		{"fragment only", Link{Href: "#top", Attrs: routed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := r.Active()
			got := r.InterceptLink(tt.link)
			if got != tt.want {
				t.Fatalf("InterceptLink() = %v, want %v", got, tt.want)
			}
			if !got && r.Active() != before {
				t.Error("a link that was not intercepted navigated")
			}
		})
	}

	if got := r.Current().Param("id"); got != "6" {
		t.Errorf("last intercepted navigation id = %q, want 6", got)
	}
}

func TestInterceptLinkGreedy(t *testing.T) {
	r := New(WithOrigin("http://localhost:3000"))
	r.Configure(ConfigPatch{LinkSelector: Ptr("a.never"), Greedy: Ptr(true)})

	if !r.InterceptLink(Link{Href: "/anything"}) {
		t.Error("greedy router should intercept any same-origin anchor")
	}
	if r.Active().URL != "/anything" {
		t.Errorf("Active() = %+v", r.Active())
	}
}
