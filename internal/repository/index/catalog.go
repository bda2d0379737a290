package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/net/html"

	"github.com/oshokin/rootfs-sync/internal/domain/release"
)

// buildDirPattern matches a run of digits followed by a slash; only runs of
// exactly buildIDLength digits are build tokens such as "20240401/".
var buildDirPattern = regexp.MustCompile(`(\d+)/`)

const buildIDLength = 8

// Catalog lists the builds published for codeName.
func (i *Index) Catalog(ctx context.Context, codeName string) (*release.Catalog, error) {
	pageURL, err := i.url(codeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	// Directory listings are linked with a trailing slash.
	body, err := i.transport.Get(ctx, pageURL+"/")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	ids, err := scanVersions(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogFetch, pageURL, errNoVersions)
	}

	return release.NewCatalog(ids...), nil
}

// scanVersions tokenizes an index page and collects build tokens found in
// text nodes and attribute values. Plain-text bodies are a single text token.
func scanVersions(body []byte) ([]release.VersionID, error) {
	var ids []release.VersionID

	collect := func(s string) {
		for _, match := range buildDirPattern.FindAllStringSubmatch(s, -1) {
			if len(match[1]) == buildIDLength {
				ids = append(ids, release.VersionID(match[1]))
			}
		}
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(body))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse index page: %w", err)
			}

			return ids, nil
		case html.TextToken:
			collect(string(tokenizer.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			_, more := tokenizer.TagName()
			for more {
				var value []byte

				_, value, more = tokenizer.TagAttr()
				collect(string(value))
			}
		default:
		}
	}
}
