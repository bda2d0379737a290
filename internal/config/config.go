package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the immutable settings of a sync run.
type Config struct {
	// BaseURL is the root of the remote image index.
	BaseURL string `yaml:"base_url"`
	// Distro is the distribution name used in the status message, e.g. "Ubuntu".
	Distro string `yaml:"distro"`
	// Name is the release display name written into the installer, e.g. "24.04 LTS".
	Name string `yaml:"name"`
	// CodeName is the release code name used as a URL path segment.
	CodeName string `yaml:"code_name"`
	// InstallerScript is the path of the installer shell script to patch.
	InstallerScript string `yaml:"installer_script"`
	// Readme is the path of the markdown document carrying the badge link.
	Readme string `yaml:"readme"`
	// StatusFile is the path of the JSON status artifact.
	StatusFile string `yaml:"status_file"`
	// LockFile is the path of the marker preventing concurrent runs.
	LockFile string `yaml:"lock_file"`
	// TrustedSuffixes select the checksum manifest lines to keep.
	TrustedSuffixes []string `yaml:"trusted_suffixes"`
	// Timeout bounds every single network call.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// UserAgent overrides the User-Agent header sent to the index.
	UserAgent string `yaml:"user_agent,omitempty"`
}

const (
	// DefaultConfigFilename is the settings file looked up when no path is given.
	DefaultConfigFilename = "rootfs-sync.yaml"

	// DefaultBaseURL is the Ubuntu cloud image index.
	DefaultBaseURL = "https://cloud-images.ubuntu.com"

	// DefaultDistro is the distribution name used in the status message.
	DefaultDistro = "Ubuntu"

	// DefaultName is the release display name.
	DefaultName = "24.04 LTS"

	// DefaultCodeName is the release code name.
	DefaultCodeName = "noble"

	// DefaultInstallerScript is the installer script path.
	DefaultInstallerScript = "install-ubuntu.sh"

	// DefaultReadme is the markdown document path.
	DefaultReadme = "README.md"

	// DefaultStatusFile is the status artifact path.
	DefaultStatusFile = "status.json"

	// DefaultLockFile is the run marker path.
	DefaultLockFile = ".rootfs-sync.lock"

	// DefaultTimeout bounds each network operation.
	DefaultTimeout = 10 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission for files created by the tool.
	DefaultFilePermissions = 0o644
)

// DefaultTrustedSuffixes returns the architecture suffixes kept from a checksum manifest.
func DefaultTrustedSuffixes() []string {
	return []string{"arm64-root.tar.xz", "armhf-root.tar.xz"}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptySuffix is returned when a trusted suffix is blank.
	errEmptySuffix = errors.New("trusted suffix must not be empty")
	// errInvalidCodeName is returned when the code name cannot be used as a path segment.
	errInvalidCodeName = errors.New("code name must be a single lowercase path segment")
	// errInvalidQuotedValue is returned when a value cannot be written inside shell double quotes.
	errInvalidQuotedValue = errors.New("value must not contain quotes or newlines")
)

// Default returns a validated configuration holding only defaults.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path and validates it.
// An empty path, or a missing file at the default path, yields Default().
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path in YAML format.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and checks the remaining ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setDefault(&cfg.BaseURL, DefaultBaseURL)
	setDefault(&cfg.Distro, DefaultDistro)
	setDefault(&cfg.Name, DefaultName)
	setDefault(&cfg.CodeName, DefaultCodeName)
	setDefault(&cfg.InstallerScript, DefaultInstallerScript)
	setDefault(&cfg.Readme, DefaultReadme)
	setDefault(&cfg.StatusFile, DefaultStatusFile)
	setDefault(&cfg.LockFile, DefaultLockFile)
	setDefault(&cfg.LogLevel, DefaultLogLevel)

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if len(cfg.TrustedSuffixes) == 0 {
		cfg.TrustedSuffixes = DefaultTrustedSuffixes()
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	parsed, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	if cfg.CodeName != strings.ToLower(cfg.CodeName) || strings.ContainsAny(cfg.CodeName, "/ \t\n\"") {
		return fmt.Errorf("%w: %q", errInvalidCodeName, cfg.CodeName)
	}

	if strings.ContainsAny(cfg.Name, "\"\n") {
		return fmt.Errorf("name %q: %w", cfg.Name, errInvalidQuotedValue)
	}

	if slices.ContainsFunc(cfg.TrustedSuffixes, func(s string) bool { return strings.TrimSpace(s) == "" }) {
		return errEmptySuffix
	}

	return nil
}

// DisplayName is the distribution and release name shown in the status message.
func (c *Config) DisplayName() string {
	return c.Distro + " " + c.Name
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
