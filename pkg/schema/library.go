package schema

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Entry is one schema file loaded into a Library.
type Entry struct {
	// ID is parsed from a leading numeric prefix of the file name
	// ("12-enrollment.yaml" → 12). Zero when the name has none.
	ID       int64
	Name     string
	Location string
	Schema   Schema
}

// Library holds schema documents keyed by file stem.
type Library struct {
	entries map[string]Entry
}

// LoadFS walks fsys and decodes every JSON/YAML file as a schema. A nil fsys
// yields an empty library.
func LoadFS(fsys fs.FS) (*Library, error) {
	lib := &Library{entries: make(map[string]Entry)}
	if fsys == nil {
		return lib, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(p) {
			return nil
		}

		doc, err := ReadDocument(fsys, SourceFromFS(p))
		if err != nil {
			return err
		}
		decoded, err := doc.Decode()
		if err != nil {
			return err
		}

		stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if _, exists := lib.entries[stem]; exists {
			return fmt.Errorf("schema: duplicate library entry %q (file %s)", stem, p)
		}
		lib.entries[stem] = Entry{
			ID:       leadingID(stem),
			Name:     stem,
			Location: p,
			Schema:   decoded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// Get returns the entry stored under name.
func (l *Library) Get(name string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	entry, ok := l.entries[name]
	return entry, ok
}

// Entries returns all entries sorted by name.
func (l *Library) Entries() []Entry {
	if l == nil || len(l.entries) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Empty reports whether the library holds no entries.
func (l *Library) Empty() bool {
	return l == nil || len(l.entries) == 0
}

func isSchemaFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func leadingID(stem string) int64 {
	end := 0
	for end < len(stem) && stem[end] >= '0' && stem[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	id, err := strconv.ParseInt(stem[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
