package vanilla

import (
	"bytes"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownOnce   sync.Once
	markdownEngine goldmark.Markdown
	markdownPolicy *bluemonday.Policy
)

// renderMarkdown converts authored paragraph and consent content. Raw HTML in
// the source is dropped by goldmark and the output is sanitised again so a
// compromised schema cannot inject script into a public form.
func renderMarkdown(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	markdownOnce.Do(func() {
		markdownEngine = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
		)
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		markdownPolicy = policy
	})

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "<p>" + markdownPolicy.Sanitize(source) + "</p>"
	}
	return strings.TrimSpace(markdownPolicy.Sanitize(buf.String()))
}
