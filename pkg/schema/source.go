package schema

import (
	"path/filepath"
	"strings"
)

// Source identifies where a schema document came from so loaders can read
// local files or fs.FS entries through one code path.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the supported origins.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing at a path on disk.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source naming an entry inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

// FormatFor infers the serialization from the source extension. Unknown
// extensions defer to content sniffing.
func FormatFor(src Source, raw []byte) Format {
	if src != nil {
		switch strings.ToLower(filepath.Ext(src.Location())) {
		case ".json":
			return FormatJSON
		case ".yaml", ".yml":
			return FormatYAML
		}
	}
	return DetectFormat(raw)
}
