package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
	"github.com/oshokin/rootfs-sync/internal/logger"
)

// Unavailable is the status written after any failed run.
const Unavailable = "Unavailable"

// Reporter writes the final outcome of a run.
type Reporter struct {
	repo Repository
}

// NewReporter creates a Reporter saving through repo.
func NewReporter(repo Repository) *Reporter {
	return &Reporter{repo: repo}
}

// Message formats the status for an outcome, e.g.
// "Ubuntu 24.04 LTS noble-20240401 Available" or "Unavailable".
func Message(success bool, displayName, codeName string, version release.VersionID) string {
	if !success {
		return Unavailable
	}

	return fmt.Sprintf("%s %s-%s Available", displayName, codeName, version)
}

// Report saves the outcome. A save failure is logged and swallowed so it can
// neither replace nor mask the result of the run.
func (r *Reporter) Report(ctx context.Context, success bool, displayName, codeName string, version release.VersionID) {
	record := &Record{Status: Message(success, displayName, codeName, version)}
	previous := r.previous(ctx)

	if err := r.repo.Save(ctx, record); err != nil {
		logger.ErrorKV(ctx, "Failed to update status", "status", record.Status, "error", err)

		return
	}

	if previous == record.Status {
		logger.InfoKV(ctx, "Status unchanged", "status", record.Status)

		return
	}

	logger.InfoKV(ctx, "Updated status", "previous", previous, "status", record.Status)
}

// previous returns the stored status, or an empty string when there is none.
func (r *Reporter) previous(ctx context.Context) string {
	record, err := r.repo.Load(ctx)

	switch {
	case errors.Is(err, ErrNotFound):
		return ""
	case err != nil:
		logger.WarnKV(ctx, "Previous status is unreadable, overwriting it", "error", err)

		return ""
	default:
		return record.Status
	}
}
