// Package release holds the domain types of a published image build.
//
// VersionID is the 8-digit build identifier, Catalog is the set of builds seen
// on the index, Select applies the target selection policy, and ChecksumSet is
// the trusted subset of a SHA256SUMS manifest in manifest order.
package release
