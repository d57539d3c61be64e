package classify

import "testing"

func TestProject_PriorityOrder(t *testing.T) {
	meta := RepoMetadata{Name: "demo"}

	// CLI marker wins even when framework markers are also present.
	tax := Project([]string{"cli.py", "setup.py", "src/app.py"}, meta, MarkerSet{})
	if tax != TaxonomyCLITool {
		t.Fatalf("expected cli_tool, got %q", tax)
	}

	tax = Project([]string{"setup.py", "src/core.py"}, meta, MarkerSet{})
	if tax != TaxonomyFramework {
		t.Fatalf("expected framework, got %q", tax)
	}

	tax = Project([]string{"src/app.py", "templates/index.html"}, meta, MarkerSet{})
	if tax != TaxonomyApplication {
		t.Fatalf("expected application, got %q", tax)
	}

	tax = Project([]string{"Dockerfile", "src/worker.c"}, meta, MarkerSet{})
	if tax != TaxonomyDevelopmentTool {
		t.Fatalf("expected development_tool, got %q", tax)
	}
}

func TestProject_DefaultsToLibrary(t *testing.T) {
	tax := Project([]string{"src/lib.rs", "README.md"}, RepoMetadata{}, MarkerSet{})
	if tax != TaxonomyLibrary {
		t.Fatalf("expected library on no signal, got %q", tax)
	}
	if got := Project(nil, RepoMetadata{}, MarkerSet{}); got != TaxonomyLibrary {
		t.Fatalf("expected library on empty catalog, got %q", got)
	}
}

func TestProject_FrameworkMarkersRootOnly(t *testing.T) {
	// A setup.py buried in a subdirectory is not a root framework marker.
	tax := Project([]string{"vendor/dep/setup.py", "src/lib.py"}, RepoMetadata{}, MarkerSet{})
	if tax != TaxonomyLibrary {
		t.Fatalf("expected library, got %q", tax)
	}
}

func TestLoadMarkers_YAMLOverridesDefaults(t *testing.T) {
	data := []byte("cli_tool:\n  - mytool.conf\nframework: []\napplication: []\ndevelopment_tool: []\n")
	m, err := LoadMarkers(data)
	if err != nil {
		t.Fatal(err)
	}
	tax := Project([]string{"mytool.conf"}, RepoMetadata{}, m)
	if tax != TaxonomyCLITool {
		t.Fatalf("expected cli_tool from custom marker, got %q", tax)
	}
	// The custom table does not know setup.py.
	tax = Project([]string{"setup.py"}, RepoMetadata{}, m)
	if tax != TaxonomyLibrary {
		t.Fatalf("expected library under custom table, got %q", tax)
	}
}

func TestLoadMarkers_BadYAML(t *testing.T) {
	if _, err := LoadMarkers([]byte("cli_tool: {not a list")); err == nil {
		t.Fatal("expected parse error")
	}
}
