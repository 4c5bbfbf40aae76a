package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/components/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle. Callers overriding a
// single template can layer their own fs.FS with WithTemplatesFS.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
