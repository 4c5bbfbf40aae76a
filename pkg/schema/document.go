package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, ErrEmptyDocument
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// ReadDocument loads the payload for src. File sources read from disk and
// ignore fsys; FS sources require it.
func ReadDocument(fsys fs.FS, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	var (
		raw []byte
		err error
	)
	switch src.Kind() {
	case SourceKindFile:
		raw, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if fsys == nil {
			return Document{}, fmt.Errorf("schema: fs source %q without filesystem", src.Location())
		}
		raw, err = fs.ReadFile(fsys, src.Location())
	default:
		return Document{}, fmt.Errorf("schema: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("schema: read %s: %w", src.Location(), err)
	}
	return NewDocument(src, raw)
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Decode parses the payload using the format implied by its source.
func (d Document) Decode() (Schema, error) {
	out, err := DecodeFormat(d.raw, FormatFor(d.source, d.raw))
	if err != nil {
		return Schema{}, fmt.Errorf("%s: %w", d.Location(), err)
	}
	return out, nil
}
