// Package common holds helpers shared by the sync services.
//
// It provides a small HTTP client with a per-call timeout, used to read the
// remote image index, and a helper that detects the current system actor
// (hostname/username) for the run log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
