package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/tasksort/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSortConfig_Validation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*SortConfig)
		wantErr string
	}{
		{"no fields", func(c *SortConfig) { c.Fields = nil }, "Fields"},
		{"blank field", func(c *SortConfig) { c.Fields = []string{"content", ""} }, "Fields"},
		{"dash only", func(c *SortConfig) { c.Fields = []string{"-"} }, "empty selector"},
		{"heading too deep", func(c *SortConfig) { c.HeadingLevel = 6 }, "HeadingLevel"},
		{"backup without title", func(c *SortConfig) { c.Backup.Title = "" }, "Title"},
		{"backup without attempts", func(c *SortConfig) { c.Backup.Attempts = 0 }, "Attempts"},
		{"negative backoff", func(c *SortConfig) { c.Backup.Backoff = -time.Second }, "Backoff"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Sort
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestBackupConfig_DisabledSkipsChecks(t *testing.T) {
	cfg := BackupConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled backup should pass: %v", err)
	}
}

func TestSortConfig_Options(t *testing.T) {
	cfg := NewDefaultConfig().Sort
	cfg.Subheadings = true
	opts := cfg.Options()

	if opts.IncludeHeading == nil || *opts.IncludeHeading {
		t.Error("include heading should be an explicit false")
	}
	if opts.Subheadings == nil || !*opts.Subheadings {
		t.Error("subheadings should be an explicit true")
	}
	if opts.Backup.Title != "Sort Backup" || opts.Backup.Attempts != 5 {
		t.Errorf("backup = %+v", opts.Backup)
	}
	opts.Fields[0] = "changed"
	if cfg.Fields[0] != "-priority" {
		t.Error("options must not alias the config fields")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("TASKSORT_TEST_VAULT", "/srv/notes")
	yaml := `
app:
  http:
    port: 9090
vault:
  path: ${TASKSORT_TEST_VAULT}
sort:
  fields: [mentions, -priority]
  subheadings: true
  backup:
    backoff: 250ms
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Path != "/srv/notes" || cfg.App.HTTP.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Sort.Fields) != 2 || !cfg.Sort.Subheadings || cfg.Sort.Backup.Backoff != 250*time.Millisecond {
		t.Errorf("sort = %+v", cfg.Sort)
	}
	if cfg.Sort.Backup.Title != "Sort Backup" {
		t.Error("unset backup title should keep its default")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
