package document

import (
	"regexp"
	"strings"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
)

// badgePattern matches `<a href="{base}/<codeName>/<8 digits>">` links.
func badgePattern(baseURL string) *regexp.Regexp {
	return regexp.MustCompile(`(<a href="` + regexp.QuoteMeta(strings.TrimRight(baseURL, "/")) +
		`/)[a-z0-9-]+/\d{8}(">)`)
}

// PatchReadme points every badge link at codeName/target.
// changed is false, and text is returned as is, when the document has no badge link.
func PatchReadme(readmeText, baseURL, codeName string, target release.VersionID) (string, bool) {
	re := badgePattern(baseURL)
	if !re.MatchString(readmeText) {
		return readmeText, false
	}

	replacement := "${1}" + strings.ReplaceAll(codeName, "$", "$$") + "/" + target.String() + "${2}"

	return re.ReplaceAllString(readmeText, replacement), true
}
