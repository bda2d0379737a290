package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseVersionID accepts only 8-digit identifiers.
func TestParseVersionID(t *testing.T) {
	t.Parallel()

	id, err := ParseVersionID("20240401")
	require.NoError(t, err)
	require.Equal(t, VersionID("20240401"), id)

	for _, raw := range []string{"", "2024040", "202404011", "2024-04-01", "current"} {
		_, err = ParseVersionID(raw)
		require.ErrorIs(t, err, ErrInvalidVersion, raw)
	}
}

// TestCatalog_DeduplicatesAndSorts checks set semantics and descending order.
func TestCatalog_DeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog("20240301", "20240401", "20240301", "20231001")

	require.Equal(t, 3, catalog.Len())
	require.True(t, catalog.Contains("20231001"))
	require.False(t, catalog.Contains("20240101"))
	require.Equal(t, []VersionID{"20240401", "20240301", "20231001"}, catalog.Sorted())

	latest, ok := catalog.Latest()
	require.True(t, ok)
	require.Equal(t, VersionID("20240401"), latest)

	_, ok = NewCatalog().Latest()
	require.False(t, ok)
	require.Nil(t, NewCatalog().Sorted())
}

// TestSelect covers the three branches of the selection policy.
func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		catalog   *Catalog
		requested string
		want      Selection
	}{
		{
			name:    "no request selects latest",
			catalog: NewCatalog("20240401", "20240301"),
			want:    Selection{Version: "20240401"},
		},
		{
			name:      "present request is honoured",
			catalog:   NewCatalog("20240401", "20240301"),
			requested: "20240301",
			want:      Selection{Version: "20240301", Requested: "20240301"},
		},
		{
			name:      "absent request falls back to latest",
			catalog:   NewCatalog("20240401"),
			requested: "20231001",
			want:      Selection{Version: "20240401", Requested: "20231001", Fallback: true},
		},
		{
			name:      "malformed request falls back to latest",
			catalog:   NewCatalog("20240401"),
			requested: "latest",
			want:      Selection{Version: "20240401", Requested: "latest", Fallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Select(tt.catalog, tt.requested)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// TestSelect_EmptyCatalog rejects selection without versions.
func TestSelect_EmptyCatalog(t *testing.T) {
	t.Parallel()

	_, err := Select(NewCatalog(), "")
	require.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Select(nil, "20240401")
	require.ErrorIs(t, err, ErrEmptyCatalog)
}
