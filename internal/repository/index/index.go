package index

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
)

// ManifestFilename is the checksum manifest published in every build directory.
const ManifestFilename = "SHA256SUMS"

var (
	// ErrCatalogFetch marks a failure to list the published builds.
	ErrCatalogFetch = errors.New("fetch version catalog")
	// ErrChecksumFetch marks a failure to obtain a trusted checksum set.
	ErrChecksumFetch = errors.New("fetch checksums")
	// errNoVersions is returned when the index page lists no build directories.
	errNoVersions = errors.New("no versions found")
	// errNoTrustedChecksums is returned when no manifest line has a trusted suffix.
	errNoTrustedChecksums = errors.New("no matching trusted checksums found")
)

// Transport is the HTTP capability the index needs.
type Transport interface {
	// Get returns the body of a successful GET, or an error for transport
	// failures and non-2xx statuses.
	Get(ctx context.Context, url string) ([]byte, error)
	// Head returns the status code of a HEAD request.
	Head(ctx context.Context, url string) (int, error)
}

// Index reads builds below a base URL.
type Index struct {
	transport       Transport
	baseURL         string
	trustedSuffixes []string
}

// New creates an Index rooted at baseURL, keeping manifest lines that end
// with one of trustedSuffixes.
func New(transport Transport, baseURL string, trustedSuffixes []string) *Index {
	return &Index{
		transport:       transport,
		baseURL:         strings.TrimRight(baseURL, "/"),
		trustedSuffixes: append([]string(nil), trustedSuffixes...),
	}
}

// Checksums fetches the SHA256SUMS manifest of version and keeps the trusted
// lines in manifest order. An empty trusted set is a failure even when the
// manifest itself has lines.
func (i *Index) Checksums(ctx context.Context, codeName string, version release.VersionID) (release.ChecksumSet, error) {
	manifestURL, err := i.url(codeName, version.String(), ManifestFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChecksumFetch, err)
	}

	body, err := i.transport.Get(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChecksumFetch, err)
	}

	set := release.ParseManifest(string(body)).FilterTrusted(i.trustedSuffixes)
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrChecksumFetch, manifestURL, errNoTrustedChecksums)
	}

	return set, nil
}

// url joins path segments below the base URL, escaping each one.
func (i *Index) url(segments ...string) (string, error) {
	joined, err := url.JoinPath(i.baseURL, segments...)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	return joined, nil
}
