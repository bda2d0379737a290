package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oshokin/rootfs-sync/internal/config"
	"github.com/oshokin/rootfs-sync/internal/domain/document"
	"github.com/oshokin/rootfs-sync/internal/domain/release"
	"github.com/oshokin/rootfs-sync/internal/logger"
	documentrepo "github.com/oshokin/rootfs-sync/internal/repository/document"
	"github.com/oshokin/rootfs-sync/internal/repository/index"
	"github.com/oshokin/rootfs-sync/internal/repository/status"
	"github.com/oshokin/rootfs-sync/internal/service/common"
	"github.com/oshokin/rootfs-sync/internal/version"
)

var (
	// ErrMissingDocument is returned when the installer script or readme is absent.
	ErrMissingDocument = errors.New("required document is missing")
	// ErrReadmeUpdate wraps any failure while reading, patching or writing the readme.
	ErrReadmeUpdate = errors.New("update readme")
	// errInvalidLogLevel is returned for an unknown log level.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Options are inputs accepted by the sync entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// RequestedVersion is the build to sync to; empty means the latest.
	RequestedVersion string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Transport overrides the HTTP client built from the settings.
	Transport index.Transport
}

// runner holds the state of a single sync.
type runner struct {
	cfg       *config.Config
	index     *index.Index
	documents *documentrepo.Store
	requested string
	// selected is the chosen build, reported in the status file.
	selected release.VersionID
}

// Run executes one sync and is the public entry point for the CLI.
// The status file is written exactly once, whatever the outcome, unless
// another run holds the lock.
func Run(ctx context.Context, opts *Options) (err error) {
	if opts == nil {
		opts = new(Options)
	}

	ctx = logger.WithName(ctx, "rootfs-sync")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		err = fmt.Errorf("load settings: %w", err)
		logger.ErrorKV(ctx, "Failed to load settings", "path", opts.ConfigPath, "error", err)

		// Without settings the status goes to its default location.
		status.NewReporter(status.NewFileRepository(config.DefaultStatusFile)).
			Report(ctx, false, "", "", "")

		return err
	}

	lock, err := acquireLock(ctx, cfg.LockFile, markerLifetime)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to acquire run lock", "path", cfg.LockFile, "error", err)

		return err
	}

	defer lock.Release(ctx)

	r := newRunner(cfg, opts)
	reporter := status.NewReporter(status.NewFileRepository(cfg.StatusFile))

	defer func() {
		reporter.Report(ctx, err == nil, cfg.DisplayName(), cfg.CodeName, r.selected)
	}()

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		logger.ErrorKV(ctx, "Failed to apply log level", "error", err)

		return err
	}

	ctx = withActor(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Sync failed", "error", err)

		return err
	}

	logger.Info(ctx, "Sync completed")

	return nil
}

func newRunner(cfg *config.Config, opts *Options) *runner {
	transport := opts.Transport
	if transport == nil {
		userAgent := cfg.UserAgent
		if userAgent == "" {
			userAgent = version.UserAgent()
		}

		transport = common.NewClient(
			common.WithCallTimeout(cfg.Timeout),
			common.WithUserAgent(userAgent),
		)
	}

	return &runner{
		cfg:       cfg,
		index:     index.New(transport, cfg.BaseURL, cfg.TrustedSuffixes),
		documents: documentrepo.NewStore(),
		requested: strings.TrimSpace(opts.RequestedVersion),
	}
}

// run performs the stages in order and stops at the first failure.
// Completed stages are not rolled back.
func (r *runner) run(ctx context.Context) error {
	if err := r.documents.Check(r.cfg.InstallerScript, r.cfg.Readme); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingDocument, err)
	}

	if err := r.selectVersion(ctx); err != nil {
		return err
	}

	installerText, err := r.documents.Read(ctx, r.cfg.InstallerScript)
	if err != nil {
		return fmt.Errorf("read installer script: %w", err)
	}

	current, err := document.CurrentVersion(installerText)
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}

	logger.InfoKV(ctx, "Comparing versions", "current", current, "selected", r.selected)

	if current == r.selected {
		logger.InfoKV(ctx, "Installer is already up-to-date", "version", current)

		return nil
	}

	logger.InfoKV(ctx, "Fetching trusted checksums", "version", r.selected)

	checksums, err := r.index.Checksums(ctx, r.cfg.CodeName, r.selected)
	if err != nil {
		return fmt.Errorf("resolve checksums: %w", err)
	}

	logger.InfoKV(ctx, "Verifying artifacts", "files", checksums.Filenames())

	if err = r.index.VerifyArtifacts(ctx, r.cfg.CodeName, r.selected, checksums); err != nil {
		return fmt.Errorf("verify artifacts: %w", err)
	}

	if err = r.updateInstaller(ctx, installerText, checksums); err != nil {
		return err
	}

	return r.updateReadme(ctx)
}

// selectVersion fetches the catalog and applies the selection policy.
func (r *runner) selectVersion(ctx context.Context) error {
	if r.requested != "" {
		if _, err := release.ParseVersionID(r.requested); err != nil {
			logger.WarnKV(ctx, "Requested version is malformed, the latest will be used", "error", err)
		}
	}

	logger.InfoKV(ctx, "Fetching available versions", "code_name", r.cfg.CodeName)

	catalog, err := r.index.Catalog(ctx, r.cfg.CodeName)
	if err != nil {
		return fmt.Errorf("select version: %w", err)
	}

	selection, err := release.Select(catalog, r.requested)
	if err != nil {
		return fmt.Errorf("select version: %w", err)
	}

	if selection.Fallback {
		logger.WarnKV(ctx, "Requested version is not available, using the latest",
			"requested", selection.Requested, "latest", selection.Version)
	}

	r.selected = selection.Version

	logger.DebugKV(ctx, "Available versions", "versions", catalog.Sorted())

	logger.InfoKV(ctx, "Selected version", "version", r.selected, "available", catalog.Len())

	return nil
}

func (r *runner) updateInstaller(ctx context.Context, installerText string, checksums release.ChecksumSet) error {
	patched, err := document.PatchInstaller(installerText, r.selected, checksums, r.cfg.Name, r.cfg.CodeName)
	if err != nil {
		return fmt.Errorf("patch installer script: %w", err)
	}

	if err = r.documents.Write(ctx, r.cfg.InstallerScript, patched); err != nil {
		return fmt.Errorf("write installer script: %w", err)
	}

	logger.InfoKV(ctx, "Updated installer script", "path", r.cfg.InstallerScript, "version", r.selected)

	return nil
}

func (r *runner) updateReadme(ctx context.Context) error {
	readmeText, err := r.documents.Read(ctx, r.cfg.Readme)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadmeUpdate, err)
	}

	patched, changed := document.PatchReadme(readmeText, r.cfg.BaseURL, r.cfg.CodeName, r.selected)
	if !changed {
		logger.WarnKV(ctx, "Readme has no version badge, leaving it unchanged", "path", r.cfg.Readme)

		return nil
	}

	if patched == readmeText {
		logger.InfoKV(ctx, "Readme already points at the selected version", "path", r.cfg.Readme)

		return nil
	}

	if err = r.documents.Write(ctx, r.cfg.Readme, patched); err != nil {
		return fmt.Errorf("%w: %w", ErrReadmeUpdate, err)
	}

	logger.InfoKV(ctx, "Updated readme", "path", r.cfg.Readme, "version", r.selected)

	return nil
}

// applyLogLevel sets the global level from override, or from configured.
func applyLogLevel(override, configured string) error {
	raw := override
	if raw == "" {
		raw = configured
	}

	level, ok := logger.ParseLogLevel(raw)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, raw)
	}

	logger.SetLevel(level)

	return nil
}

// withActor tags every later log line with the invoking host and user.
func withActor(ctx context.Context) context.Context {
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Failed to detect actor", "error", err)

		return ctx
	}

	ctx = logger.WithFields(ctx, zap.String("host", actor.Hostname), zap.String("user", actor.Username))

	logger.Info(ctx, "Starting sync")

	return ctx
}
