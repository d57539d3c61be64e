package classify

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarkerSet is the configuration table behind Project. Each field holds file
// markers (base names, or repo-relative paths when they contain a '/') whose
// presence signals the corresponding taxonomy. New ecosystems are added by
// extending the table, not the classifier.
type MarkerSet struct {
	CLITool         []string `yaml:"cli_tool"`
	Framework       []string `yaml:"framework"`
	Application     []string `yaml:"application"`
	DevelopmentTool []string `yaml:"development_tool"`
}

func (m MarkerSet) empty() bool {
	return len(m.CLITool) == 0 && len(m.Framework) == 0 &&
		len(m.Application) == 0 && len(m.DevelopmentTool) == 0
}

// DefaultMarkers covers the common ecosystems out of the box.
func DefaultMarkers() MarkerSet {
	return MarkerSet{
		CLITool: []string{
			"cli.py", "cli.js", "cli.ts", "cli.go",
			"cmd/main.go", "bin/cli", "__main__.py",
			"cobra.yaml", "commander.js",
		},
		Framework: []string{
			"setup.py", "pyproject.toml", "plugin.xml",
			"framework.config", "webpack.config.js", "rollup.config.js",
			"gradle.properties",
		},
		Application: []string{
			"app.py", "main.py", "index.html", "electron.js",
			"appdelegate.swift", "mainactivity.java", "wsgi.py", "asgi.py",
			"manage.py",
		},
		DevelopmentTool: []string{
			"daemon.py", "server.py", "service.go", "dockerfile",
			"supervisord.conf", "systemd.service",
		},
	}
}

// LoadMarkers parses a YAML marker table. Empty sections fall back to the
// defaults when the whole set ends up empty (see Project).
func LoadMarkers(data []byte) (MarkerSet, error) {
	var m MarkerSet
	if err := yaml.Unmarshal(data, &m); err != nil {
		return MarkerSet{}, fmt.Errorf("parse marker table: %w", err)
	}
	return m, nil
}
