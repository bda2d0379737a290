// Package syncer runs one rootfs version sync: it resolves the target build
// from the remote index, fetches and verifies its trusted checksums, patches
// the installer script and readme, and always records the outcome in the
// status file.
package syncer
