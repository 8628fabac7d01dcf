package settings

// settings.go — topogen configuration loaded from .topogen/settings.yaml.
//
// Precedence, lowest first: built-in defaults, the settings file, env
// files (config.env then .env, never overriding the real environment),
// TOPOGEN_* variables, then command-line flags (applied by the caller).
//
// The ignore list uses deny-rule globs: bare ("drafts/**") or wrapped in
// a Read() verb ("Read(./drafts/**)").

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"topogen/internal/bundle"
)

// Dir and File locate the default settings file under a project root.
const (
	Dir  = ".topogen"
	File = "settings.yaml"
)

// EnvFiles are loaded in order by LoadEnvFiles.
var EnvFiles = []string{"config.env", ".env"}

// Settings holds generator configuration.
type Settings struct {
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
	OutputDir string   `yaml:"output_dir"`
	Overwrite bool     `yaml:"overwrite_existing"`
	Backup    bool     `yaml:"backup_existing"`
	Artifacts bool     `yaml:"artifacts"`
	Workers   int      `yaml:"workers"`
	Ignore    []string `yaml:"ignore"`
	S3        S3       `yaml:"s3"`
}

// S3 addresses the bucket used by generate --publish.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		LogLevel:  "info",
		LogFormat: "console",
		OutputDir: ".",
		Backup:    true,
		Artifacts: true,
		Workers:   4,
	}
}

// Load reads settings from path, or from .topogen/settings.yaml under root
// when path is empty. A missing default file yields Default(); a missing
// explicit path is an error. Keys absent from the file keep their defaults.
func Load(root, path string) (Settings, error) {
	s := Default()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, Dir, File)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if s.Workers < 0 {
		return s, fmt.Errorf("%s: workers must not be negative, got %d", path, s.Workers)
	}
	return s, nil
}

// LoadEnvFiles loads EnvFiles from dir into the process environment.
// Missing files are skipped and variables already set are kept.
func LoadEnvFiles(dir string) error {
	for _, name := range EnvFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays TOPOGEN_* variables read through lookup (os.LookupEnv
// in production). Empty values are ignored.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	strVars := []struct {
		key string
		dst *string
	}{
		{"TOPOGEN_LOG_LEVEL", &s.LogLevel},
		{"TOPOGEN_LOG_FORMAT", &s.LogFormat},
		{"TOPOGEN_OUTPUT_DIR", &s.OutputDir},
		{"TOPOGEN_S3_ENDPOINT", &s.S3.Endpoint},
		{"TOPOGEN_S3_REGION", &s.S3.Region},
		{"TOPOGEN_S3_ACCESS_KEY", &s.S3.AccessKey},
		{"TOPOGEN_S3_SECRET_KEY", &s.S3.SecretKey},
		{"TOPOGEN_S3_BUCKET", &s.S3.Bucket},
		{"TOPOGEN_S3_PREFIX", &s.S3.Prefix},
	}
	for _, sv := range strVars {
		if v, ok := get(sv.key); ok {
			*sv.dst = v
		}
	}

	boolVars := []struct {
		key string
		dst *bool
	}{
		{"TOPOGEN_OVERWRITE", &s.Overwrite},
		{"TOPOGEN_BACKUP", &s.Backup},
		{"TOPOGEN_ARTIFACTS", &s.Artifacts},
		{"TOPOGEN_S3_USE_SSL", &s.S3.UseSSL},
	}
	for _, bv := range boolVars {
		v, ok := get(bv.key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", bv.key, v)
		}
		*bv.dst = b
	}

	if v, ok := get("TOPOGEN_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("TOPOGEN_WORKERS: %q is not a non-negative integer", v)
		}
		s.Workers = n
	}
	return nil
}

// S3Config converts the bucket settings for bundle.NewS3Sink.
func (s *Settings) S3Config() bundle.S3Config {
	return bundle.S3Config{
		Endpoint:  s.S3.Endpoint,
		Region:    s.S3.Region,
		AccessKey: s.S3.AccessKey,
		SecretKey: s.S3.SecretKey,
		Bucket:    s.S3.Bucket,
		Prefix:    s.S3.Prefix,
		UseSSL:    s.S3.UseSSL,
	}
}

// IsIgnored reports whether relPath (forward-slash, relative to the batch
// root) matches any ignore rule. Safe to call on a nil receiver.
func (s *Settings) IsIgnored(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Ignore {
		if matchPattern(parseRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseRule extracts the path glob from an ignore rule.
//
//	"Read(./drafts/**)" → "drafts/**"
//	"drafts/**"         → "drafts/**"
func parseRule(rule string) string {
	rule = strings.TrimSpace(rule)
	if strings.HasPrefix(rule, "Read(") && strings.HasSuffix(rule, ")") {
		rule = rule[5 : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchPattern reports whether path matches an ignore glob.
//
// "prefix/**" matches the prefix directory itself and every path beneath it.
// Other patterns use filepath.Match semantics (single * does not cross /).
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
