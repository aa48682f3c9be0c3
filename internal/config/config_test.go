package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
	if len(cfg.Suffixes) != 1 || cfg.Suffixes[0] != ".md" {
		t.Errorf("expected default suffixes [.md], got %v", cfg.Suffixes)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
}

func TestNormalizeRoots(t *testing.T) {
	cfg := &Config{
		Roots: []Root{
			{Path: "./test_docs"},
			{Path: "./repo", GitRef: "main"},
			{Path: "./named", Alias: "Named"},
		},
	}
	cfg.normalizeRoots()

	absExpected, _ := filepath.Abs("./test_docs")
	if cfg.Roots[0].Path != absExpected {
		t.Errorf("expected path %s, got %s", absExpected, cfg.Roots[0].Path)
	}
	if cfg.Roots[0].Alias != "test_docs" {
		t.Errorf("expected alias test_docs, got %s", cfg.Roots[0].Alias)
	}
	if cfg.Roots[1].Alias != "repo@main" {
		t.Errorf("expected alias repo@main, got %s", cfg.Roots[1].Alias)
	}
	if cfg.Roots[2].Alias != "Named" {
		t.Errorf("expected alias Named, got %s", cfg.Roots[2].Alias)
	}
}

func TestAddRoot(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.AddRoot("./docs", "MyDocs", ""); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}
	if err := cfg.AddRoot("./docs", "Other", ""); err != nil {
		t.Fatalf("re-adding the same root failed: %v", err)
	}
	if len(cfg.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(cfg.Roots))
	}
	if cfg.Roots[0].Alias != "MyDocs" {
		t.Errorf("expected alias MyDocs, got %s", cfg.Roots[0].Alias)
	}

	if err := cfg.AddRoot("./elsewhere", "MyDocs", ""); err == nil {
		t.Error("expected duplicate alias to be rejected")
	}
	if err := cfg.AddRoot("./elsewhere", "a/b", ""); err == nil {
		t.Error("expected alias with separator to be rejected")
	}

	r, ok := cfg.RootByAlias("MyDocs")
	if !ok {
		t.Fatal("expected RootByAlias to find MyDocs")
	}
	if !filepath.IsAbs(r.Path) {
		t.Errorf("expected absolute path, got %s", r.Path)
	}

	if cfg.RemoveRootByIndex(5) {
		t.Error("expected out-of-range removal to fail")
	}
	if !cfg.RemoveRootByIndex(0) || len(cfg.Roots) != 0 {
		t.Error("expected root to be removed")
	}
}

func TestIsExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{".git", "node_modules", "*.tmp"}

	tests := []struct {
		path string
		want bool
	}{
		{"/path/to/.git", true},
		{"/path/to/node_modules", true},
		{"/path/to/scratch.tmp", true},
		{"/path/to/README.md", false},
	}
	for _, tt := range tests {
		if got := cfg.IsExcluded(tt.path); got != tt.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHasWatchedSuffix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Suffixes = []string{".md", "_test.go"}

	if !cfg.HasWatchedSuffix("/x/README.md") {
		t.Error("expected README.md to match")
	}
	if !cfg.HasWatchedSuffix("/x/query_test.go") {
		t.Error("expected query_test.go to match")
	}
	if cfg.HasWatchedSuffix("/x/query.go") {
		t.Error("expected query.go not to match")
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			tmpFile := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.configPath = tmpFile
			cfg.Port = 9999
			cfg.Ancestor = "docs"
			cfg.Roots = []Root{{Path: "/tmp", Alias: "Temp"}}

			if err := cfg.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			cfg2, err := Load(tmpFile)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if cfg2.Port != 9999 {
				t.Errorf("expected port 9999, got %d", cfg2.Port)
			}
			if cfg2.Ancestor != "docs" {
				t.Errorf("expected ancestor docs, got %q", cfg2.Ancestor)
			}
			if len(cfg2.Roots) != 1 || cfg2.Roots[0].Alias != "Temp" {
				t.Errorf("root loading failed: %+v", cfg2.Roots)
			}
			if cfg2.GetConfigFilePath() != tmpFile {
				t.Errorf("expected config path %s, got %s", tmpFile, cfg2.GetConfigFilePath())
			}
		})
	}
}

func TestLoad_ExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(tmpFile, []byte("port: 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Port)
	}
	if !cfg.Watch || len(cfg.Exclude) == 0 {
		t.Error("expected defaults to survive a partial file")
	}
}
