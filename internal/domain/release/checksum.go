package release

import (
	"strings"
)

// ChecksumEntry is one line of a SHA256SUMS manifest.
type ChecksumEntry struct {
	// Hash is the hex digest.
	Hash string
	// Filename is the artifact name relative to the version directory.
	Filename string
	// Line is the trimmed manifest line, written back verbatim into documents.
	Line string
}

// ChecksumSet is an ordered list of entries, in manifest order.
type ChecksumSet []ChecksumEntry

// ParseManifest splits a SHA256SUMS body into entries, skipping blank lines.
// The filename is the text after the "*" binary marker, or the last field
// when the line uses text mode.
func ParseManifest(body string) ChecksumSet {
	var set ChecksumSet

	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		set = append(set, parseEntry(line))
	}

	return set
}

func parseEntry(line string) ChecksumEntry {
	entry := ChecksumEntry{Line: line}

	fields := strings.Fields(line)
	entry.Hash = fields[0]

	if _, name, ok := strings.Cut(line, "*"); ok {
		entry.Filename = name
	} else if len(fields) > 1 {
		entry.Filename = fields[len(fields)-1]
	}

	return entry
}

// FilterTrusted keeps entries whose line ends with one of suffixes, in order.
// The first matching suffix wins so an entry is never kept twice.
func (s ChecksumSet) FilterTrusted(suffixes []string) ChecksumSet {
	var out ChecksumSet

	for _, entry := range s {
		for _, suffix := range suffixes {
			if strings.HasSuffix(entry.Line, suffix) {
				out = append(out, entry)

				break
			}
		}
	}

	return out
}

// Filenames lists the artifact names in set order.
func (s ChecksumSet) Filenames() []string {
	names := make([]string, 0, len(s))
	for _, entry := range s {
		names = append(names, entry.Filename)
	}

	return names
}

// Lines lists the manifest lines in set order.
func (s ChecksumSet) Lines() []string {
	lines := make([]string, 0, len(s))
	for _, entry := range s {
		lines = append(lines, entry.Line)
	}

	return lines
}
