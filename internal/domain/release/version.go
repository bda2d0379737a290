package release

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// VersionID identifies a published build, e.g. "20240401".
// Lexicographic order equals chronological order for this fixed-width format.
type VersionID string

var (
	// ErrInvalidVersion is returned for identifiers that are not 8 digits.
	ErrInvalidVersion = errors.New("version must be 8 digits")
	// ErrEmptyCatalog is returned when selecting from a catalog without versions.
	ErrEmptyCatalog = errors.New("version catalog is empty")
)

var versionPattern = regexp.MustCompile(`^\d{8}$`)

// ParseVersionID validates raw as an 8-digit identifier.
func ParseVersionID(raw string) (VersionID, error) {
	if !versionPattern.MatchString(raw) {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidVersion)
	}

	return VersionID(raw), nil
}

func (v VersionID) String() string {
	return string(v)
}

// Catalog is the deduplicated set of versions observed on the index.
type Catalog struct {
	ids map[VersionID]struct{}
}

// NewCatalog builds a catalog from ids, dropping duplicates.
func NewCatalog(ids ...VersionID) *Catalog {
	c := &Catalog{ids: make(map[VersionID]struct{}, len(ids))}
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}

	return c
}

// Len returns the number of distinct versions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}

	return len(c.ids)
}

// Contains reports whether id was observed.
func (c *Catalog) Contains(id VersionID) bool {
	if c == nil {
		return false
	}

	_, ok := c.ids[id]

	return ok
}

// Latest returns the most recent version.
func (c *Catalog) Latest() (VersionID, bool) {
	var latest VersionID

	if c.Len() == 0 {
		return latest, false
	}

	for id := range c.ids {
		if id > latest {
			latest = id
		}
	}

	return latest, true
}

// Sorted returns all versions, most recent first.
func (c *Catalog) Sorted() []VersionID {
	if c.Len() == 0 {
		return nil
	}

	out := make([]VersionID, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}

	slices.Sort(out)
	slices.Reverse(out)

	return out
}

// Selection is the outcome of the version selection policy.
type Selection struct {
	// Version is the build to sync to.
	Version VersionID
	// Requested is the version asked for, empty when none was given.
	Requested string
	// Fallback is set when Requested was given but not found in the catalog.
	Fallback bool
}

// Select picks the target version: the requested one when the catalog has it,
// otherwise the latest. A request that is absent sets Fallback.
func Select(catalog *Catalog, requested string) (Selection, error) {
	latest, ok := catalog.Latest()
	if !ok {
		return Selection{}, ErrEmptyCatalog
	}

	selection := Selection{
		Version:   latest,
		Requested: requested,
	}

	switch {
	case requested == "":
	case catalog.Contains(VersionID(requested)):
		selection.Version = VersionID(requested)
	default:
		selection.Fallback = true
	}

	return selection, nil
}
