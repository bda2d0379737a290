package index

import (
	"context"
	"net/http"
	"strings"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
	"github.com/oshokin/rootfs-sync/internal/logger"
)

// MissingArtifactsError lists every artifact that could not be reached.
type MissingArtifactsError struct {
	// Files are the missing filenames in checksum set order.
	Files []string
}

func (e *MissingArtifactsError) Error() string {
	return "missing or inaccessible files: " + strings.Join(e.Files, ", ")
}

// VerifyArtifacts probes every artifact of set with a HEAD request, one at a
// time. Only 200 counts as present; other statuses and transport failures are
// both reported as missing, with the reason logged per file. All artifacts are
// checked before a *MissingArtifactsError is returned.
func (i *Index) VerifyArtifacts(
	ctx context.Context,
	codeName string,
	version release.VersionID,
	set release.ChecksumSet,
) error {
	var missing []string

	for _, entry := range set {
		artifactURL, err := i.url(codeName, version.String(), entry.Filename)
		if err != nil {
			logger.WarnKV(ctx, "Artifact URL is invalid", "file", entry.Filename, "error", err)

			missing = append(missing, entry.Filename)

			continue
		}

		code, err := i.transport.Head(ctx, artifactURL)

		switch {
		case err != nil:
			logger.WarnKV(ctx, "Artifact probe failed", "url", artifactURL, "error", err)

			missing = append(missing, entry.Filename)
		case code != http.StatusOK:
			logger.WarnKV(ctx, "Artifact is not available", "url", artifactURL, "status", code)

			missing = append(missing, entry.Filename)
		default:
			logger.DebugKV(ctx, "Artifact is available", "url", artifactURL)
		}
	}

	if len(missing) > 0 {
		return &MissingArtifactsError{Files: missing}
	}

	return nil
}
