package classify

import "testing"

func TestPath_KindTable(t *testing.T) {
	cases := []struct {
		in   string
		name string
		kind Kind
	}{
		{"src/a.py", "a.py", KindCode},
		{"pkg/server.go", "server.go", KindCode},
		{"lib/core.rs", "core.rs", KindCode},
		{"README.md", "README.md", KindDocumentation},
		{"docs/guide.rst", "guide.rst", KindDocumentation},
		{"config.yaml", "config.yaml", KindConfig},
		{"settings.TOML", "settings.TOML", KindConfig},
		{"assets/logo.svg", "logo.svg", KindImage},
		{"photo.JPEG", "photo.JPEG", KindImage},
		{"LICENSE", "LICENSE", KindOther},
		{"bin/tool.exe", "tool.exe", KindOther},
	}
	for _, tc := range cases {
		name, kind := Path(tc.in)
		if name != tc.name || kind != tc.kind {
			t.Errorf("Path(%q) = (%q, %q), want (%q, %q)", tc.in, name, kind, tc.name, tc.kind)
		}
	}
}

func TestPath_CaseInsensitiveExtension(t *testing.T) {
	_, upper := Path("README.MD")
	_, lower := Path("readme.md")
	if upper != KindDocumentation || lower != KindDocumentation {
		t.Fatalf("expected documentation for both cases, got %q and %q", upper, lower)
	}
}

func TestPath_NeverFails(t *testing.T) {
	for _, in := range []string{"", ".", "/", "weird.", "no-ext", "a/b/c/"} {
		_, kind := Path(in)
		if kind == "" {
			t.Errorf("Path(%q) returned empty kind", in)
		}
	}
}
