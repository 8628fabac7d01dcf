package settings

// settings_test.go — Tests for settings loading, env overlays and ignore
// rules.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// parseRule / matchPattern
// ---------------------------------------------------------------------------

func TestParseRule(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Read(./drafts/**)", "drafts/**"},
		{"./drafts/**", "drafts/**"},
		{"drafts/**", "drafts/**"},
		{"Read(legacy/**)", "legacy/**"},
		{"  *.json  ", "*.json"},
	}
	for _, tc := range tests {
		if got := parseRule(tc.input); got != tc.want {
			t.Errorf("parseRule(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"drafts/**", "drafts", true},
		{"drafts/**", "drafts/a.yaml", true},
		{"drafts/**", "drafts/old/b.yaml", true},
		{"drafts/**", "cases/drafts/a.yaml", false},
		{"drafts/**", "draftsx/a.yaml", false},
		{"*.json", "a.json", true},
		{"*.json", "cases/a.json", false},
		{"cases/*.hcl", "cases/c.hcl", true},
	}
	for _, tc := range tests {
		if got := matchPattern(tc.pattern, tc.path); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestIsIgnored(t *testing.T) {
	s := &Settings{Ignore: []string{"Read(./drafts/**)", "*.json"}}
	for _, p := range []string{"drafts", "drafts/x.yaml", "a.json"} {
		if !s.IsIgnored(p) {
			t.Errorf("IsIgnored(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"a.yaml", "cases/a.json"} {
		if s.IsIgnored(p) {
			t.Errorf("IsIgnored(%q) = true, want false", p)
		}
	}

	var nilSettings *Settings
	if nilSettings.IsIgnored("anything") {
		t.Error("nil Settings.IsIgnored should always return false")
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_FileNotExist(t *testing.T) {
	s, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if diff := cmp.Diff(Default(), s); diff != "" {
		t.Errorf("missing file should give defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit settings file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `
log_level: debug
output_dir: out
overwrite_existing: true
artifacts: false
workers: 8
ignore:
  - "Read(./drafts/**)"
s3:
  endpoint: localhost:9000
  bucket: topologies
`
	if err := os.WriteFile(filepath.Join(dir, Dir, File), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.LogLevel = "debug"
	want.OutputDir = "out"
	want.Overwrite = true
	want.Artifacts = false
	want.Workers = 8
	want.Ignore = []string{"Read(./drafts/**)"}
	want.S3.Endpoint = "localhost:9000"
	want.S3.Bucket = "topologies"
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(":\tbad yaml:"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("", bad); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}

	neg := filepath.Join(dir, "neg.yaml")
	if err := os.WriteFile(neg, []byte("workers: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("", neg); err == nil {
		t.Error("expected error for negative workers, got nil")
	}
}

// ---------------------------------------------------------------------------
// ApplyEnv / LoadEnvFiles
// ---------------------------------------------------------------------------

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	s := Default()
	err := s.ApplyEnv(mapLookup(map[string]string{
		"TOPOGEN_LOG_FORMAT":  "json",
		"TOPOGEN_OUTPUT_DIR":  " build ",
		"TOPOGEN_BACKUP":      "false",
		"TOPOGEN_WORKERS":     "2",
		"TOPOGEN_S3_BUCKET":   "b",
		"TOPOGEN_S3_USE_SSL":  "1",
		"TOPOGEN_LOG_LEVEL":   "",
		"UNRELATED_VARIABLE":  "x",
		"TOPOGEN_S3_ENDPOINT": "s3.local",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	want := Default()
	want.LogFormat = "json"
	want.OutputDir = "build"
	want.Backup = false
	want.Workers = 2
	want.S3.Bucket = "b"
	want.S3.UseSSL = true
	want.S3.Endpoint = "s3.local"
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []map[string]string{
		{"TOPOGEN_OVERWRITE": "maybe"},
		{"TOPOGEN_WORKERS": "many"},
		{"TOPOGEN_WORKERS": "-3"},
	}
	for _, env := range tests {
		s := Default()
		if err := s.ApplyEnv(mapLookup(env)); err == nil {
			t.Errorf("ApplyEnv(%v): expected error", env)
		}
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.env"), []byte("TOPOGEN_TEST_A=from-config\nTOPOGEN_TEST_B=from-config\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TOPOGEN_TEST_B=from-dotenv\nTOPOGEN_TEST_C=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOPOGEN_TEST_C", "from-process")
	// Registered so t.Setenv restores the unset state afterwards.
	t.Setenv("TOPOGEN_TEST_A", "")
	os.Unsetenv("TOPOGEN_TEST_A")
	t.Setenv("TOPOGEN_TEST_B", "")
	os.Unsetenv("TOPOGEN_TEST_B")

	if err := LoadEnvFiles(dir); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	want := map[string]string{
		"TOPOGEN_TEST_A": "from-config",
		"TOPOGEN_TEST_B": "from-config",
		"TOPOGEN_TEST_C": "from-process",
	}
	for k, v := range want {
		if got := os.Getenv(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestLoadEnvFiles_NonePresent(t *testing.T) {
	if err := LoadEnvFiles(t.TempDir()); err != nil {
		t.Errorf("missing env files should be skipped, got %v", err)
	}
}

func TestS3Config(t *testing.T) {
	s := Default()
	s.S3 = S3{Endpoint: "e", Region: "r", AccessKey: "a", SecretKey: "k", Bucket: "b", Prefix: "p", UseSSL: true}
	c := s.S3Config()
	if c.Endpoint != "e" || c.Region != "r" || c.AccessKey != "a" || c.SecretKey != "k" || c.Bucket != "b" || c.Prefix != "p" || !c.UseSSL {
		t.Errorf("S3Config() = %+v", c)
	}
}
