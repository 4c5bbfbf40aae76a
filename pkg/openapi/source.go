package openapi

import (
	"fmt"
	"net/url"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// SourceKindURL marks documents fetched over HTTP(S).
const SourceKindURL schema.SourceKind = "url"

// SourceFromFile and SourceFromFS reuse the schema package sources so CLI
// flags and fs.FS entries resolve the same way for both document kinds.
var (
	SourceFromFile = schema.SourceFromFile
	SourceFromFS   = schema.SourceFromFS
)

type urlSource struct {
	raw string
}

func (s urlSource) Location() string        { return s.raw }
func (s urlSource) Kind() schema.SourceKind { return SourceKindURL }

// SourceFromURL validates raw and returns a Source for it.
func SourceFromURL(raw string) (schema.Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("openapi: empty URL source")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("openapi: unsupported URL scheme %q", u.Scheme)
	}
	return urlSource{raw: raw}, nil
}
