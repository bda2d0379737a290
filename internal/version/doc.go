// Package version exposes build metadata for rootfs-sync.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
// Full renders them for the version command; UserAgent identifies the tool
// in outbound HTTP requests to the image index.
package version
