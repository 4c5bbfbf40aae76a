// Package runtime embeds the browser runtime that re-evaluates form rules,
// drives step navigation and initialises widgets, plus the base stylesheet.
//
// The script is plain ES5 with no build step. It interprets the same rule
// program JSON the vanilla renderer embeds, so the browser and the server
// agree on which fields are hidden, required or disabled.
package runtime

import (
	"embed"
	"io/fs"
)

// Asset names, relative to FS.
const (
	ScriptName     = "formflow-runtime.js"
	StylesheetName = "formflow.css"
)

//go:embed assets/formflow-runtime.js assets/formflow.css
var embedded embed.FS

// FS exposes the unminified assets.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		return embedded
	}
	return sub
}

// Script returns the runtime source.
func Script() string {
	return mustRead(ScriptName)
}

// Stylesheet returns the base stylesheet.
func Stylesheet() string {
	return mustRead(StylesheetName)
}

func mustRead(name string) string {
	data, err := fs.ReadFile(FS(), name)
	if err != nil {
		panic("runtime: embedded asset missing: " + name)
	}
	return string(data)
}
