package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_FillsDefaults checks that an empty config becomes the Ubuntu noble defaults.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultCodeName, cfg.CodeName)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultTrustedSuffixes(), cfg.TrustedSuffixes)
	require.Equal(t, "Ubuntu 24.04 LTS", cfg.DisplayName())
}

// TestValidate_RejectsBadValues covers the formatting checks.
func TestValidate_RejectsBadValues(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(&Config{BaseURL: "not a url"}))
	require.Error(t, Validate(&Config{BaseURL: "ftp://mirror.local"}))
	require.Error(t, Validate(&Config{CodeName: "Noble"}))
	require.Error(t, Validate(&Config{CodeName: "noble/extra"}))
	require.Error(t, Validate(&Config{Name: `24.04 "LTS"`}))
	require.Error(t, Validate(&Config{TrustedSuffixes: []string{"arm64-root.tar.xz", " "}}))

	cfg := &Config{BaseURL: "https://mirror.local/images/"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "https://mirror.local/images", cfg.BaseURL)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		BaseURL:         "https://mirror.local",
		CodeName:        "jammy",
		Name:            "22.04 LTS",
		Timeout:         3 * time.Second,
		TrustedSuffixes: []string{"amd64-root.tar.xz"},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_MissingFile distinguishes an explicit path from the default one.
func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = Load(DefaultConfigFilename)
	require.NoError(t, err)
	require.Equal(t, DefaultCodeName, cfg.CodeName)

	_, err = Load("missing.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoad_PartialFile keeps defaults for keys the file does not name.
func TestLoad_PartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("code_name: oracular\ntimeout: 2s\n"), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "oracular", cfg.CodeName)
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.Equal(t, DefaultInstallerScript, cfg.InstallerScript)
}
