// Package index reads the remote image index.
//
// It lists the published builds of a code name, fetches and filters the
// SHA256SUMS manifest of a build, and probes that every trusted artifact is
// downloadable. Each operation is a single attempt bounded by the transport's
// timeout; there are no retries.
package index
