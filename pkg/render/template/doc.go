// Package template defines the renderer-agnostic template interface. The
// gotemplate subpackage provides the pongo2 implementation used by the HTML
// renderer.
package template
